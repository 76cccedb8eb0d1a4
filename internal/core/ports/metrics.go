package ports

import (
	"time"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// AuthMetrics receives reconciler decisions for instrumentation.
type AuthMetrics interface {
	LoginResolved(status domain.LoginStatus, path domain.AuthPath)
	PrimaryFallback(status domain.IdentityStatus)
	PrimarySync(result domain.PrimarySync)
	SetupResolved(status domain.SetupStatus)
	SessionRestored(status domain.RestoreStatus)
}

// CallObserver receives the latency and classified result of every remote
// call an adapter makes.
type CallObserver interface {
	ObserveCall(backend, action, result string, elapsed time.Duration)
}
