// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"
	"time"
)

func TestNullString(t *testing.T) {
	if ns := NullString(""); ns.Valid {
		t.Error("NullString(\"\") should be invalid")
	}
	ns := NullString("hello")
	if !ns.Valid || ns.String != "hello" {
		t.Errorf("NullString(\"hello\") = %+v, want valid \"hello\"", ns)
	}

	if got := NullStringValue(ns); got != "hello" {
		t.Errorf("NullStringValue = %q, want %q", got, "hello")
	}
	if got := NullStringValue(NullString("")); got != "" {
		t.Errorf("NullStringValue of NULL = %q, want empty", got)
	}
}

func TestNullTime(t *testing.T) {
	if nt := NullTime(time.Time{}); nt.Valid {
		t.Error("NullTime(zero) should be invalid")
	}

	now := time.Now()
	nt := NullTime(now)
	if !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("NullTime(now) = %+v, want valid %v", nt, now)
	}

	if p := NullTimePtr(nt); p == nil || !p.Equal(now) {
		t.Errorf("NullTimePtr = %v, want %v", p, now)
	}
	if p := NullTimePtr(NullTime(time.Time{})); p != nil {
		t.Errorf("NullTimePtr of NULL = %v, want nil", p)
	}
}
