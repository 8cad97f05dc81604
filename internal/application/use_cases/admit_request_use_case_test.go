//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type admissionFixture struct {
	tokens tokenFixture
	store  *fakeRateWindowStore
	admit  *admitRequestUseCase
}

func newAdmissionFixture(ipRule, tokenRule dto.RateLimitRule) admissionFixture {
	tokens := newTokenFixture(time.Hour)
	store := newFakeRateWindowStore()
	rateLimit := NewCheckRateLimitUseCase(store, tokens.clock)
	return admissionFixture{
		tokens: tokens,
		store:  store,
		admit:  NewAdmitRequestUseCase(tokens.validate, rateLimit, ipRule, tokenRule, tokens.clock).(*admitRequestUseCase),
	}
}

func defaultAdmissionFixture() admissionFixture {
	return newAdmissionFixture(
		dto.RateLimitRule{Ceiling: 100, Window: time.Minute},
		dto.RateLimitRule{Ceiling: 1000, Window: time.Hour},
	)
}

func TestAdmitRequestUseCaseAuthenticatesAndChecksBothLimiters(t *testing.T) {
	fixture := defaultAdmissionFixture()
	issued, _ := fixture.tokens.issue.Execute(context.Background(), dto.IssueTokenCommand{UserID: "user-1"})

	output, appErr := fixture.admit.Execute(context.Background(), dto.AdmitRequestCommand{
		ClientIP:      "10.0.0.1",
		Authorization: "Bearer " + issued.Token,
		RequireAuth:   true,
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Stage != dto.AdmissionStageRateChecked {
		t.Fatalf("expected rate_checked stage, got %s", output.Stage)
	}
	if output.Principal == nil || output.Principal.UserID != "user-1" {
		t.Fatalf("expected principal for user-1, got %+v", output.Principal)
	}
	if len(fixture.store.calls) != 2 ||
		fixture.store.calls[0] != "ip:10.0.0.1" ||
		fixture.store.calls[1] != "token:"+issued.TokenID {
		t.Fatalf("unexpected limiter keys %v", fixture.store.calls)
	}

	binding, ok := output.Binding()
	if !ok || binding.Scope != dto.RateLimitScopeIP || binding.Remaining != 99 {
		t.Fatalf("expected ip window to bind with 99 remaining, got %+v", binding)
	}
}

func TestAdmitRequestUseCaseRejectsMissingOrMalformedAuthorization(t *testing.T) {
	fixture := defaultAdmissionFixture()

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer a b"} {
		output, appErr := fixture.admit.Execute(context.Background(), dto.AdmitRequestCommand{
			ClientIP:      "10.0.0.2",
			Authorization: header,
			RequireAuth:   true,
		})
		if appErr == nil || appErr.Code != "unauthorized" || appErr.Type != apperrors.TypeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %+v", header, appErr)
		}
		if output.Stage != dto.AdmissionStageReceived {
			t.Fatalf("expected rejection at received stage, got %s", output.Stage)
		}
	}
}

func TestAdmitRequestUseCaseMapsTokenFailures(t *testing.T) {
	fixture := defaultAdmissionFixture()
	issued, _ := fixture.tokens.issue.Execute(context.Background(), dto.IssueTokenCommand{UserID: "user-1"})
	_ = fixture.tokens.revoke.Execute(context.Background(), dto.RevokeTokenCommand{Token: issued.Token})

	cases := []struct {
		name  string
		token string
		code  string
	}{
		{name: "unknown", token: "tf_unknown", code: "invalid_token"},
		{name: "revoked", token: issued.Token, code: "revoked_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := fixture.admit.Execute(context.Background(), dto.AdmitRequestCommand{
				ClientIP:      "10.0.0.3",
				Authorization: "Bearer " + tc.token,
				RequireAuth:   true,
			})
			if appErr == nil || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, appErr)
			}
		})
	}
}

func TestAdmitRequestUseCaseRejectsOneHundredFirstRequestFromIP(t *testing.T) {
	fixture := defaultAdmissionFixture()
	command := dto.AdmitRequestCommand{ClientIP: "10.0.0.4"}

	for i := 1; i <= 100; i++ {
		if _, appErr := fixture.admit.Execute(context.Background(), command); appErr != nil {
			t.Fatalf("expected request %d to be admitted, got %+v", i, appErr)
		}
	}

	output, appErr := fixture.admit.Execute(context.Background(), command)
	if appErr == nil || appErr.Type != apperrors.TypeRateLimited {
		t.Fatalf("expected rate limited error, got %+v", appErr)
	}
	if appErr.Details["scope"] != "ip" {
		t.Fatalf("expected ip scope, got %v", appErr.Details)
	}
	retryAfter, _ := appErr.Details["retry_after_seconds"].(int)
	if retryAfter < 1 || retryAfter > 60 {
		t.Fatalf("expected retry_after within the window, got %v", appErr.Details["retry_after_seconds"])
	}
	binding, _ := output.Binding()
	if binding.Allowed || binding.Remaining != 0 {
		t.Fatalf("expected rejecting binding decision, got %+v", binding)
	}

	fixture.tokens.clock.Advance(time.Minute)
	if _, appErr := fixture.admit.Execute(context.Background(), command); appErr != nil {
		t.Fatalf("expected new window to admit, got %+v", appErr)
	}
}

func TestAdmitRequestUseCaseChargesFailedAuthToIPWindow(t *testing.T) {
	fixture := newAdmissionFixture(
		dto.RateLimitRule{Ceiling: 3, Window: time.Minute},
		dto.RateLimitRule{Ceiling: 1000, Window: time.Hour},
	)
	command := dto.AdmitRequestCommand{
		ClientIP:      "10.0.0.5",
		Authorization: "Bearer tf_bogus",
		RequireAuth:   true,
	}

	for i := 0; i < 3; i++ {
		_, appErr := fixture.admit.Execute(context.Background(), command)
		if appErr == nil || appErr.Code != "invalid_token" {
			t.Fatalf("expected invalid_token on attempt %d, got %+v", i, appErr)
		}
	}
	_, appErr := fixture.admit.Execute(context.Background(), command)
	if appErr == nil || appErr.Code != "rate_limited" {
		t.Fatalf("expected exhausted ip window to answer rate_limited, got %+v", appErr)
	}
}

func TestAdmitRequestUseCaseRejectsExhaustedTokenWindow(t *testing.T) {
	fixture := newAdmissionFixture(
		dto.RateLimitRule{Ceiling: 100, Window: time.Minute},
		dto.RateLimitRule{Ceiling: 2, Window: time.Hour},
	)
	issued, _ := fixture.tokens.issue.Execute(context.Background(), dto.IssueTokenCommand{UserID: "user-1"})

	admit := func(ip string) *apperrors.AppError {
		_, appErr := fixture.admit.Execute(context.Background(), dto.AdmitRequestCommand{
			ClientIP:      ip,
			Authorization: "Bearer " + issued.Token,
			RequireAuth:   true,
		})
		return appErr
	}
	if appErr := admit("10.0.0.6"); appErr != nil {
		t.Fatalf("expected first request admitted, got %+v", appErr)
	}
	if appErr := admit("10.0.0.7"); appErr != nil {
		t.Fatalf("expected second request admitted, got %+v", appErr)
	}
	appErr := admit("10.0.0.8")
	if appErr == nil || appErr.Details["scope"] != "token" {
		t.Fatalf("expected token scope rejection across ips, got %+v", appErr)
	}
}

func TestAdmitRequestUseCasePropagatesStoreFailure(t *testing.T) {
	fixture := defaultAdmissionFixture()
	fixture.store.err = apperrors.NewInternal("rate_store_unavailable", "down", nil)

	_, appErr := fixture.admit.Execute(context.Background(), dto.AdmitRequestCommand{ClientIP: "10.0.0.9"})
	if appErr == nil || appErr.Code != "rate_store_unavailable" {
		t.Fatalf("expected store failure, got %+v", appErr)
	}
}

func TestCheckRateLimitUseCaseValidatesCommand(t *testing.T) {
	useCase := NewCheckRateLimitUseCase(newFakeRateWindowStore(), nil)

	cases := []struct {
		command dto.CheckRateLimitCommand
		code    string
	}{
		{command: dto.CheckRateLimitCommand{Ceiling: 1, Window: time.Second}, code: "rate_limit_key_invalid"},
		{command: dto.CheckRateLimitCommand{Key: "ip:x", Window: time.Second}, code: "rate_limit_ceiling_invalid"},
		{command: dto.CheckRateLimitCommand{Key: "ip:x", Ceiling: 1}, code: "rate_limit_window_invalid"},
	}
	for _, tc := range cases {
		_, appErr := useCase.Execute(context.Background(), tc.command)
		if appErr == nil || appErr.Code != tc.code {
			t.Fatalf("expected %s, got %+v", tc.code, appErr)
		}
	}
}

func TestRateLimitDecisionRetryAfterSecondsRoundsUp(t *testing.T) {
	cases := []struct {
		retryAfter time.Duration
		want       int
	}{
		{retryAfter: 0, want: 1},
		{retryAfter: 200 * time.Millisecond, want: 1},
		{retryAfter: time.Second, want: 1},
		{retryAfter: 1500 * time.Millisecond, want: 2},
		{retryAfter: 59*time.Second + time.Millisecond, want: 60},
	}
	for _, tc := range cases {
		got := dto.RateLimitDecision{RetryAfter: tc.retryAfter}.RetryAfterSeconds()
		if got != tc.want {
			t.Fatalf("expected %d for %s, got %d", tc.want, tc.retryAfter, got)
		}
	}
}
