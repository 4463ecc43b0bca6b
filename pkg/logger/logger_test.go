package logger_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bvandewe/tools-provider-sub014/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should create a logger for each supported level", func() {
			for _, lvl := range []string{"debug", "info", "warn", "error"} {
				log := logger.New(lvl, false, "dev")
				Expect(log).NotTo(BeNil())
			}
		})

		It("should default to info for an unknown level", func() {
			log := logger.New("loud", false, "dev")
			Expect(log).NotTo(BeNil())
			Expect(log.Enabled(context.Background(), slog.LevelInfo)).To(BeTrue())
			Expect(log.Enabled(context.Background(), slog.LevelDebug)).To(BeFalse())
		})

		It("should create a prod logger", func() {
			log := logger.New("info", false, "prod")
			Expect(log).NotTo(BeNil())
		})

		It("should respect the configured level", func() {
			log := logger.New("error", false, "dev")
			Expect(log.Enabled(context.Background(), slog.LevelError)).To(BeTrue())
			Expect(log.Enabled(context.Background(), slog.LevelWarn)).To(BeFalse())
		})
	})
})
