package circuitbreaker_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bvandewe/tools-provider-sub014/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var (
		registry *circuitbreaker.Registry
		ctx      context.Context
	)

	defaults := circuitbreaker.Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMaxCalls: 1,
	}

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(defaults, nil)
		ctx = context.Background()
	})

	Describe("GetOrCreate", func() {
		It("should create a breaker for an unknown identity", func() {
			cb := registry.GetOrCreate(circuitbreaker.TokenExchange(), defaults)
			Expect(cb).NotTo(BeNil())
			Expect(cb.GetState().State).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same identity", func() {
			cb1 := registry.GetOrCreate(circuitbreaker.ToolExecution("github"), defaults)
			cb2 := registry.GetOrCreate(circuitbreaker.ToolExecution("github"), defaults)
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should return different breakers for different identities", func() {
			cb1 := registry.GetOrCreate(circuitbreaker.ToolExecution("github"), defaults)
			cb2 := registry.GetOrCreate(circuitbreaker.ToolExecution("jira"), defaults)
			cb3 := registry.GetOrCreate(circuitbreaker.TokenExchange(), defaults)
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
			Expect(cb1).NotTo(BeIdenticalTo(cb3))
		})

		It("should honor only the first config for an identity", func() {
			strict := circuitbreaker.Config{FailureThreshold: 2, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1}
			loose := circuitbreaker.Config{FailureThreshold: 9, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1}

			cb := registry.GetOrCreate(circuitbreaker.ToolExecution("github"), strict)
			Expect(registry.GetOrCreate(circuitbreaker.ToolExecution("github"), loose)).To(BeIdenticalTo(cb))

			// Still trips after two failures: the second config was ignored.
			_, _ = cb.Call(ctx, fail)
			_, _ = cb.Call(ctx, fail)
			Expect(cb.GetState().State).To(Equal(circuitbreaker.StateOpen))
		})

		It("should handle concurrent first use of the same identity", func() {
			const goroutines = 100

			var wg sync.WaitGroup
			wg.Add(goroutines)
			for i := 0; i < goroutines; i++ {
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					cb := registry.GetOrCreate(circuitbreaker.ToolExecution("github"), defaults)
					Expect(cb).NotTo(BeNil())
				}()
			}
			wg.Wait()

			Expect(registry.ListAll()).To(HaveLen(1))
		})
	})

	Describe("Get", func() {
		It("should create breakers with the registry defaults", func() {
			short := circuitbreaker.Config{FailureThreshold: 2, RecoveryTimeout: 50 * time.Millisecond, HalfOpenMaxCalls: 1}
			registry = circuitbreaker.NewRegistry(short, nil)

			cb := registry.Get(circuitbreaker.ToolExecution("github"))
			_, _ = cb.Call(ctx, fail)
			_, _ = cb.Call(ctx, fail)
			Expect(cb.GetState().State).To(Equal(circuitbreaker.StateOpen))

			time.Sleep(60 * time.Millisecond)
			_, err := cb.Call(ctx, succeed)
			Expect(err).NotTo(HaveOccurred())
			Expect(cb.GetState().State).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("isolation between identities", func() {
		It("should never let one breaker's failures affect another", func() {
			srcA := registry.GetOrCreate(circuitbreaker.ToolExecution("a"),
				circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1})
			srcB := registry.Get(circuitbreaker.ToolExecution("b"))
			keycloak := registry.Get(circuitbreaker.TokenExchange())

			_, _ = srcA.Call(ctx, fail)
			Expect(srcA.GetState().State).To(Equal(circuitbreaker.StateOpen))

			Expect(srcB.GetState().State).To(Equal(circuitbreaker.StateClosed))
			Expect(srcB.GetState().FailureCount).To(BeZero())
			Expect(keycloak.GetState().State).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("ListAll", func() {
		It("should enumerate breakers sorted by key", func() {
			registry.Get(circuitbreaker.ToolExecution("jira"))
			registry.Get(circuitbreaker.TokenExchange())
			registry.Get(circuitbreaker.ToolExecution("github"))

			entries := registry.ListAll()
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Identity.Key()).To(Equal("keycloak"))
			Expect(entries[1].Identity.Key()).To(Equal("source:github"))
			Expect(entries[2].Identity.Key()).To(Equal("source:jira"))
		})

		It("should report per-breaker snapshots", func() {
			trip := registry.GetOrCreate(circuitbreaker.ToolExecution("github"),
				circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1})
			_, _ = trip.Call(ctx, fail)
			registry.Get(circuitbreaker.TokenExchange())

			entries := registry.ListAll()
			Expect(entries[0].Snapshot.State).To(Equal(circuitbreaker.StateClosed))
			Expect(entries[1].Snapshot.State).To(Equal(circuitbreaker.StateOpen))
			Expect(entries[1].Snapshot.FailureCount).To(Equal(1))
		})
	})

	Describe("Reset", func() {
		It("should reset an existing breaker by key", func() {
			cb := registry.GetOrCreate(circuitbreaker.ToolExecution("github"),
				circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1})
			_, _ = cb.Call(ctx, fail)
			Expect(cb.GetState().State).To(Equal(circuitbreaker.StateOpen))

			Expect(registry.Reset("source:github", "ops")).To(Succeed())
			Expect(cb.GetState().State).To(Equal(circuitbreaker.StateClosed))
		})

		It("should fail with ErrUnknownIdentity for an unknown key", func() {
			err := registry.Reset("source:never-created", "ops")
			Expect(err).To(MatchError(circuitbreaker.ErrUnknownIdentity))
		})
	})

	Describe("ResetAll", func() {
		It("should reset every breaker and report the count", func() {
			one := circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1}
			a := registry.GetOrCreate(circuitbreaker.ToolExecution("a"), one)
			b := registry.GetOrCreate(circuitbreaker.TokenExchange(), one)
			_, _ = a.Call(ctx, fail)
			_, _ = b.Call(ctx, fail)

			Expect(registry.ResetAll("ops")).To(Equal(2))
			Expect(a.GetState().State).To(Equal(circuitbreaker.StateClosed))
			Expect(b.GetState().State).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("ResetType", func() {
		It("should reset only breakers of the given type", func() {
			one := circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1}
			tool := registry.GetOrCreate(circuitbreaker.ToolExecution("a"), one)
			keycloak := registry.GetOrCreate(circuitbreaker.TokenExchange(), one)
			_, _ = tool.Call(ctx, fail)
			_, _ = keycloak.Call(ctx, fail)

			Expect(registry.ResetType(circuitbreaker.TypeToolExecution, "ops")).To(Equal([]string{"source:a"}))
			Expect(tool.GetState().State).To(Equal(circuitbreaker.StateClosed))
			Expect(keycloak.GetState().State).To(Equal(circuitbreaker.StateOpen))
		})

		It("should return the reset keys sorted", func() {
			one := circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, HalfOpenMaxCalls: 1}
			registry.GetOrCreate(circuitbreaker.ToolExecution("jira"), one)
			registry.GetOrCreate(circuitbreaker.ToolExecution("github"), one)

			Expect(registry.ResetType(circuitbreaker.TypeToolExecution, "ops")).
				To(Equal([]string{"source:github", "source:jira"}))
		})
	})
})

var _ = Describe("Identity", func() {
	It("should key token exchange as keycloak", func() {
		Expect(circuitbreaker.TokenExchange().Key()).To(Equal("keycloak"))
	})

	It("should key tool execution by source", func() {
		id := circuitbreaker.ToolExecution("github")
		Expect(id.Key()).To(Equal("source:github"))
		Expect(id.Type).To(Equal(circuitbreaker.TypeToolExecution))
		Expect(id.SourceID).To(Equal("github"))
	})
})
