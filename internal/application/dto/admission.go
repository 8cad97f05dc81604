package dto

import "time"

type AdmissionStage string

const (
	AdmissionStageReceived      AdmissionStage = "received"
	AdmissionStageAuthenticated AdmissionStage = "authenticated"
	AdmissionStageRateChecked   AdmissionStage = "rate_checked"
)

type AdmitRequestCommand struct {
	ClientIP      string
	Authorization string
	RequireAuth   bool
	Now           time.Time
}

// AdmissionOutput is populated on rejection too: Stage names the gate that rejected
// and Decisions carries whatever limiter results were computed.
type AdmissionOutput struct {
	Stage     AdmissionStage
	Principal *Principal
	Decisions []RateLimitDecision
}

// Binding returns the decision closest to rejection, used for X-RateLimit-* headers.
func (o AdmissionOutput) Binding() (RateLimitDecision, bool) {
	if len(o.Decisions) == 0 {
		return RateLimitDecision{}, false
	}
	binding := o.Decisions[0]
	for _, decision := range o.Decisions[1:] {
		if !decision.Allowed && binding.Allowed {
			binding = decision
			continue
		}
		if decision.Allowed == binding.Allowed && decision.Remaining < binding.Remaining {
			binding = decision
		}
	}
	return binding, true
}
