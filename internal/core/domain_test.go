package core

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusApproved, false},
		{StatusSubmitted, StatusApproving, true},
		{StatusSubmitted, StatusApproved, true},
		{StatusSubmitted, StatusRejected, true},
		{StatusSubmitted, StatusNeedInfo, true},
		{StatusApproving, StatusApproved, true},
		{StatusApproving, StatusPaid, false},
		{StatusApproved, StatusPaymentOrdered, true},
		{StatusPaymentOrdered, StatusPaid, true},
		{StatusNeedInfo, StatusSubmitted, true},
		{StatusRejected, StatusSubmitted, false},
		{StatusPaid, StatusDraft, false},
	}
	for i, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("case %d: %s -> %s = %v, want %v", i, tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusApproving, StatusApproved, StatusPaymentOrdered, StatusPaid, StatusRejected, StatusNeedInfo} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if Status("BOGUS").Valid() {
		t.Fatalf("BOGUS should be invalid")
	}
}

func TestRequestValidate(t *testing.T) {
	good := DisbursementRequest{Code: "DN-01", ProjectID: "p1", CompletionPct: 50, Status: StatusDraft}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []DisbursementRequest{
		{Code: "", ProjectID: "p1"},
		{Code: "DN-01", ProjectID: ""},
		{Code: "DN-01", ProjectID: "p1", CompletionPct: 150},
		{Code: "DN-01", ProjectID: "p1", CompletionPct: -1},
		{Code: "DN-01", ProjectID: "p1", Status: "WHAT"},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestChannelValidate(t *testing.T) {
	if err := (Channel{Name: "general", Type: ChannelChat}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Channel{Name: "", Type: ChannelChat}).Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := (Channel{Name: "x", Type: "video"}).Validate(); err == nil {
		t.Fatalf("expected error for bad type")
	}
}

func TestMessageValidate(t *testing.T) {
	if err := (Message{UserID: "u1", Text: "hello"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Message{UserID: "u1", Text: "   "}).Validate(); err == nil {
		t.Fatalf("expected error for blank text")
	}
}
