package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/adapters/inbound/http/respond"
	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type RejectionRecorder interface {
	CountRejection(code string)
}

type Admission struct {
	useCase  portsin.AdmitRequestUseCase
	clientIP ClientIPResolver
	recorder RejectionRecorder
	logger   *log.Logger
	now      func() time.Time
}

func NewAdmission(
	useCase portsin.AdmitRequestUseCase,
	clientIP ClientIPResolver,
	recorder RejectionRecorder,
	logger *log.Logger,
) *Admission {
	return &Admission{
		useCase:  useCase,
		clientIP: clientIP,
		recorder: recorder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Protect runs the auth and rate-limit gates before next. With requireAuth unset only
// the per-IP limiter applies. The authenticated principal is stored in the request
// context.
func (a *Admission) Protect(requireAuth bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil || a.useCase == nil {
			respond.AppError(w, apperrors.NewInternal(
				"admission_not_configured",
				"request admission is not configured",
				nil,
			))
			return
		}

		output, appErr := a.useCase.Execute(r.Context(), dto.AdmitRequestCommand{
			ClientIP:      a.clientIP.Resolve(r),
			Authorization: r.Header.Get("Authorization"),
			RequireAuth:   requireAuth,
			Now:           a.now(),
		})
		writeRateLimitHeaders(w, output)
		if appErr != nil {
			a.reject(w, r, output, appErr)
			return
		}

		ctx := r.Context()
		if output.Principal != nil {
			ctx = WithPrincipal(ctx, *output.Principal)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Admission) reject(w http.ResponseWriter, r *http.Request, output dto.AdmissionOutput, appErr *apperrors.AppError) {
	if a.recorder != nil {
		a.recorder.CountRejection(appErr.Code)
	}
	if appErr.Is(apperrors.TypeInternal) && a.logger != nil {
		a.logger.Printf(
			"admission error path=%s method=%s stage=%s code=%s message=%s",
			r.URL.Path,
			r.Method,
			output.Stage,
			appErr.Code,
			appErr.Message,
		)
	}
	respond.AppError(w, appErr)
}

func writeRateLimitHeaders(w http.ResponseWriter, output dto.AdmissionOutput) {
	binding, ok := output.Binding()
	if !ok {
		return
	}

	header := w.Header()
	header.Set("X-RateLimit-Limit", strconv.Itoa(binding.Limit))
	header.Set("X-RateLimit-Remaining", strconv.Itoa(binding.Remaining))
	header.Set("X-RateLimit-Reset", strconv.FormatInt(binding.ResetAt.Unix(), 10))
}
