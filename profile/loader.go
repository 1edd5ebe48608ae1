// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maitred-foundation/maitred/lib/clock"
	"github.com/maitred-foundation/maitred/lib/hours"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/record"
	"github.com/maitred-foundation/maitred/relay"
)

// DefaultCacheTTL is how long a loaded profile stays fresh when the
// loader is configured without a TTL.
const DefaultCacheTTL = 5 * time.Minute

// BusinessProfile is the decoded profile content plus the parsed
// opening schedule.
type BusinessProfile struct {
	// Author is the business key the profile was published under.
	Author ref.PublicKey

	// Name is the display name.
	Name string

	// TZID is the business's home IANA timezone.
	TZID string

	// Hours is the raw opening-hours text from the record.
	Hours string

	// Schedule is Hours parsed; nil when the profile publishes no
	// hours or the text does not parse.
	Schedule *hours.Schedule

	// UpdatedAt is the record's creation timestamp.
	UpdatedAt int64
}

// profileContent is the JSON shape of a profile record's content.
// Unknown fields (display metadata, menus, links) are ignored.
type profileContent struct {
	Name  string `json:"name"`
	TZID  string `json:"tzid,omitempty"`
	Hours string `json:"hours,omitempty"`
}

// Fetcher retrieves records from one relay endpoint. *relay.Client
// is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, filter relay.Filter) ([]*record.Record, error)
}

// LoaderConfig holds configuration for creating a Loader.
type LoaderConfig struct {
	// Fetcher performs the relay queries. Required.
	Fetcher Fetcher
	// Endpoints are the relays to query. Required, non-empty.
	Endpoints []string
	// CacheTTL is how long a fetched profile stays fresh. If zero,
	// DefaultCacheTTL is used.
	CacheTTL time.Duration
	// Clock drives cache expiry. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Loader fetches business profiles and caches them per author. It is
// safe for concurrent use.
type Loader struct {
	fetcher   Fetcher
	endpoints []string
	ttl       time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[ref.PublicKey]cacheEntry
}

type cacheEntry struct {
	profile   *BusinessProfile
	expiresAt time.Time
}

// NewLoader creates a Loader.
func NewLoader(config LoaderConfig) (*Loader, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("profile: loader requires a fetcher")
	}
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("profile: loader requires at least one relay endpoint")
	}
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fetcher:   config.Fetcher,
		endpoints: config.Endpoints,
		ttl:       ttl,
		clock:     clk,
		logger:    logger,
		cache:     make(map[ref.PublicKey]cacheEntry),
	}, nil
}

// Load returns the author's current profile. A business with no
// published profile yields (nil, nil): absence is a normal state,
// not a failure. An error means every relay query failed.
//
// Hits inside the TTL are served from the cache; absence is cached
// too, so a missing profile does not trigger a relay round-trip per
// message.
func (l *Loader) Load(ctx context.Context, author ref.PublicKey) (*BusinessProfile, error) {
	now := l.clock.Now()

	l.mu.RLock()
	entry, ok := l.cache[author]
	l.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.profile, nil
	}

	profile, err := l.fetch(ctx, author)
	if err != nil {
		// A stale entry beats a hard failure while relays are down.
		if ok {
			l.logger.Warn("profile refresh failed, serving stale entry",
				"author", author.String(), "error", err)
			return entry.profile, nil
		}
		return nil, err
	}

	l.mu.Lock()
	l.cache[author] = cacheEntry{profile: profile, expiresAt: now.Add(l.ttl)}
	l.mu.Unlock()
	return profile, nil
}

// fetch queries every endpoint, merges the results, and keeps the
// latest replaceable record. It fails only when no endpoint answered
// at all.
func (l *Loader) fetch(ctx context.Context, author ref.PublicKey) (*BusinessProfile, error) {
	filter := relay.Filter{
		Kinds:   []ref.Kind{ref.KindProfile},
		Authors: []ref.PublicKey{author},
	}

	var merged []*record.Record
	var lastErr error
	answered := 0
	for _, endpoint := range l.endpoints {
		records, err := l.fetcher.Fetch(ctx, endpoint, filter)
		if err != nil {
			lastErr = err
			l.logger.Warn("profile fetch failed",
				"endpoint", endpoint, "author", author.String(), "error", err)
			continue
		}
		answered++
		merged = append(merged, records...)
	}
	if answered == 0 {
		return nil, fmt.Errorf("profile: all relays failed for %s: %w", author, lastErr)
	}

	latest := record.Latest(merged)
	rec, ok := latest[record.Identity{Kind: ref.KindProfile, Author: author}]
	if !ok {
		return nil, nil
	}
	return parseProfile(rec, l.logger)
}

func parseProfile(rec *record.Record, logger *slog.Logger) (*BusinessProfile, error) {
	var content profileContent
	if err := json.Unmarshal(rec.Content, &content); err != nil {
		return nil, fmt.Errorf("profile: record %s content does not parse: %w", rec.ID, err)
	}

	profile := &BusinessProfile{
		Author:    rec.Author,
		Name:      content.Name,
		TZID:      content.TZID,
		Hours:     content.Hours,
		UpdatedAt: rec.CreatedAt,
	}
	if content.Hours != "" {
		schedule, err := hours.Parse(content.Hours)
		if err != nil {
			// Unparseable hours disable the hours check rather than
			// blocking the whole profile.
			logger.Warn("profile opening hours do not parse",
				"author", rec.Author.String(), "hours", content.Hours, "error", err)
		} else {
			profile.Schedule = schedule
		}
	}
	return profile, nil
}

// Invalidate drops the cached entry for an author, forcing the next
// Load to hit the relays.
func (l *Loader) Invalidate(author ref.PublicKey) {
	l.mu.Lock()
	delete(l.cache, author)
	l.mu.Unlock()
}
