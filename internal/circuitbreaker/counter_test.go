package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bvandewe/tools-provider-sub014/internal/circuitbreaker"
)

var _ = Describe("FailureCounter", func() {
	var counter circuitbreaker.FailureCounter

	BeforeEach(func() {
		counter = circuitbreaker.FailureCounter{}
	})

	It("should start at zero with no failure time", func() {
		snap := counter.Snapshot()
		Expect(snap.FailureCount).To(BeZero())
		Expect(snap.LastFailureTime).To(BeNil())
	})

	It("should count consecutive failures and remember the latest timestamp", func() {
		first := time.Now().Add(-time.Second)
		second := time.Now()

		counter.RecordFailure(first)
		counter.RecordFailure(second)

		snap := counter.Snapshot()
		Expect(snap.FailureCount).To(Equal(2))
		Expect(*snap.LastFailureTime).To(Equal(second))
	})

	It("should clear everything on success", func() {
		counter.RecordFailure(time.Now())
		counter.RecordSuccess()

		snap := counter.Snapshot()
		Expect(snap.FailureCount).To(BeZero())
		Expect(snap.LastFailureTime).To(BeNil())
	})

	It("should hand out snapshots detached from later mutations", func() {
		counter.RecordFailure(time.Now())
		snap := counter.Snapshot()
		counter.RecordFailure(time.Now())
		Expect(snap.FailureCount).To(Equal(1))
	})
})
