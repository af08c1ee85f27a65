package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace string = "storefront"

var (
	ReturnSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "returns",
		Name:      "submissions_total",
		Help:      "Return request submissions by result",
	}, []string{"result"})

	WishlistMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wishlist",
		Name:      "mutations_total",
		Help:      "Wishlist mutations by operation",
	}, []string{"op"})

	WishlistResyncs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wishlist",
		Name:      "external_resyncs_total",
		Help:      "Wishlist reloads triggered by writes from other contexts",
	})

	WishlistPersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wishlist",
		Name:      "persist_failures_total",
		Help:      "Wishlist storage reads or writes that failed and were absorbed",
	})

	StorefrontRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Calls to the storefront REST API by endpoint and result",
	}, []string{"endpoint", "result"})
)

const (
	ResultSuccess  string = "success"
	ResultFailure  string = "failure"
	ResultRejected string = "rejected"
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ReturnSubmissions,
		WishlistMutations,
		WishlistResyncs,
		WishlistPersistFailures,
		StorefrontRequests,
	}
}

// Register adds all service collectors, already registered ones are skipped
func Register(registerer prometheus.Registerer) error {
	for _, collector := range collectors() {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return errors.Wrap(err, "register collector failed")
		}
	}
	return nil
}
