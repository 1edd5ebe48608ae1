// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"bytes"
	"errors"
	"testing"

	"github.com/maitred-foundation/maitred/lib/ref"
)

// testKinds used by envelope tests; the real protocol kinds live in
// the reservation package.
const testKindMessage ref.Kind = 14

func newTestIdentity(t *testing.T) *Identity {
	t.Helper()
	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity failed: %v", err)
	}
	return identity
}

func newTestRumor(t *testing.T, author *Identity, content []byte) *Rumor {
	t.Helper()
	rumor := &Rumor{
		Kind:      testKindMessage,
		Author:    author.Author(),
		CreatedAt: 1760994000,
		Content:   content,
	}
	if err := rumor.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	return rumor
}

func TestIdentityIsDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, SeedSize)
	first, err := NewIdentity(seed)
	if err != nil {
		t.Fatalf("NewIdentity failed: %v", err)
	}
	second, err := NewIdentity(seed)
	if err != nil {
		t.Fatalf("NewIdentity failed: %v", err)
	}
	if first.Author() != second.Author() || first.Exchange() != second.Exchange() {
		t.Error("same seed derived different identities")
	}
	if first.Author().String() == first.Exchange().String() {
		t.Error("author and exchange keys are not independent")
	}
}

func TestRoundTrip(t *testing.T) {
	sender := newTestIdentity(t)
	recipient := newTestIdentity(t)
	rumor := newTestRumor(t, sender, []byte(`{"party_size":4}`))

	seal, err := NewSeal(rumor, sender, recipient.Exchange())
	if err != nil {
		t.Fatalf("NewSeal failed: %v", err)
	}
	wrapped, err := GiftWrap(seal, recipient.Exchange(), "https://relay.example")
	if err != nil {
		t.Fatalf("GiftWrap failed: %v", err)
	}

	opened, err := Open(wrapped, recipient)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if opened.Rumor.ID != rumor.ID {
		t.Errorf("rumor ID changed in transit: %v != %v", opened.Rumor.ID, rumor.ID)
	}
	if !bytes.Equal(opened.Rumor.Content, rumor.Content) {
		t.Errorf("content changed in transit: %s", opened.Rumor.Content)
	}
	if opened.Sender != sender.Author() {
		t.Errorf("sender not recovered: %v", opened.Sender)
	}
	if opened.SenderExchange != sender.Exchange() {
		t.Errorf("sender exchange key not recovered: %v", opened.SenderExchange)
	}
}

func TestWrappedRecordHidesSender(t *testing.T) {
	sender := newTestIdentity(t)
	recipient := newTestIdentity(t)
	rumor := newTestRumor(t, sender, []byte("private"))

	seal, err := NewSeal(rumor, sender, recipient.Exchange())
	if err != nil {
		t.Fatalf("NewSeal failed: %v", err)
	}
	wrapped, err := GiftWrap(seal, recipient.Exchange(), "")
	if err != nil {
		t.Fatalf("GiftWrap failed: %v", err)
	}

	if wrapped.Author == sender.Author() {
		t.Error("outer record is authored by the real sender")
	}
	if wrapped.Kind != ref.KindGiftWrap {
		t.Errorf("outer kind = %v", wrapped.Kind)
	}
	if err := wrapped.Verify(); err != nil {
		t.Errorf("outer record does not verify: %v", err)
	}
	if bytes.Contains(wrapped.Content, []byte("private")) {
		t.Error("plaintext leaked into the wrap content")
	}
	key, _, ok := wrapped.Tags.Routing()
	if !ok || key != recipient.Exchange() {
		t.Error("routing tag does not address the recipient")
	}
}

func TestGiftWrapEphemeralKeysAreSingleUse(t *testing.T) {
	sender := newTestIdentity(t)
	recipient := newTestIdentity(t)
	rumor := newTestRumor(t, sender, []byte("same rumor"))

	seal, err := NewSeal(rumor, sender, recipient.Exchange())
	if err != nil {
		t.Fatalf("NewSeal failed: %v", err)
	}
	first, err := GiftWrap(seal, recipient.Exchange(), "")
	if err != nil {
		t.Fatalf("GiftWrap failed: %v", err)
	}
	second, err := GiftWrap(seal, recipient.Exchange(), "")
	if err != nil {
		t.Fatalf("GiftWrap failed: %v", err)
	}
	if first.Author == second.Author {
		t.Error("two wraps share an ephemeral author key")
	}
}

func TestOpenWrongRecipient(t *testing.T) {
	sender := newTestIdentity(t)
	recipient := newTestIdentity(t)
	eavesdropper := newTestIdentity(t)
	rumor := newTestRumor(t, sender, []byte("secret"))

	seal, err := NewSeal(rumor, sender, recipient.Exchange())
	if err != nil {
		t.Fatalf("NewSeal failed: %v", err)
	}
	wrapped, err := GiftWrap(seal, recipient.Exchange(), "")
	if err != nil {
		t.Fatalf("GiftWrap failed: %v", err)
	}

	if _, err := Open(wrapped, eavesdropper); !errors.Is(err, ErrDecryption) {
		t.Errorf("Open by wrong recipient: %v, want ErrDecryption", err)
	}
}

func TestOpenCorruptPayload(t *testing.T) {
	sender := newTestIdentity(t)
	recipient := newTestIdentity(t)
	rumor := newTestRumor(t, sender, []byte("secret"))

	seal, err := NewSeal(rumor, sender, recipient.Exchange())
	if err != nil {
		t.Fatalf("NewSeal failed: %v", err)
	}
	wrapped, err := GiftWrap(seal, recipient.Exchange(), "")
	if err != nil {
		t.Fatalf("GiftWrap failed: %v", err)
	}

	corrupt := *wrapped
	corrupt.Content = append([]byte(nil), wrapped.Content...)
	corrupt.Content[len(corrupt.Content)-1] ^= 0xff
	if _, err := Open(&corrupt, recipient); !errors.Is(err, ErrDecryption) {
		t.Errorf("Open of corrupt wrap: %v, want ErrDecryption", err)
	}

	notAWrap := *wrapped
	notAWrap.Kind = testKindMessage
	if _, err := Open(&notAWrap, recipient); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("Open of non-wrap kind: %v, want ErrMalformedMessage", err)
	}
}

func TestNewSealRejectsForeignRumor(t *testing.T) {
	sender := newTestIdentity(t)
	impostor := newTestIdentity(t)
	recipient := newTestIdentity(t)
	rumor := newTestRumor(t, sender, []byte("hello"))

	if _, err := NewSeal(rumor, impostor, recipient.Exchange()); !errors.Is(err, ErrEncoding) {
		t.Errorf("NewSeal with mismatched identity: %v, want ErrEncoding", err)
	}
}

func TestBuilderWrap(t *testing.T) {
	sender := newTestIdentity(t)
	recipient := newTestIdentity(t)
	builder := &Builder{Sender: sender}
	rumor := newTestRumor(t, sender, []byte("via builder"))

	wrapped, err := builder.Wrap(rumor, recipient.Exchange(), "https://relay.example")
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	opened, err := Open(wrapped, recipient)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened.Rumor.Content, rumor.Content) {
		t.Error("builder round-trip lost content")
	}
	_, hint, _ := wrapped.Tags.Routing()
	if hint != "https://relay.example" {
		t.Errorf("relay hint = %q", hint)
	}
}
