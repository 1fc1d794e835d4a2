package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidValuesFallBackToDefaults verifies that any non-positive
// numeric setting falls back to its default, so a partially filled or
// mistyped config file still yields an operational process.
func TestProperty_InvalidValuesFallBackToDefaults(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	archiveDefaults := DefaultArchiveConfig()
	schedulerDefaults := DefaultSchedulerConfig()

	properties.Property("non-positive archive settings fall back to defaults", prop.ForAll(
		func(queueSize, batchSize, workers, flushSec int) bool {
			cfg := &Config{}
			cfg.Archive = ArchiveConfig{
				QueueSize:        queueSize,
				BatchSize:        batchSize,
				Workers:          workers,
				FlushIntervalSec: flushSec,
			}

			validateAndApplyDefaults(cfg)

			return cfg.Archive.QueueSize == archiveDefaults.QueueSize &&
				cfg.Archive.BatchSize == archiveDefaults.BatchSize &&
				cfg.Archive.Workers == archiveDefaults.Workers &&
				cfg.Archive.FlushIntervalSec == archiveDefaults.FlushIntervalSec
		},
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
	))

	properties.Property("valid archive settings are preserved", prop.ForAll(
		func(queueSize, batchSize int) bool {
			cfg := &Config{}
			cfg.Archive.QueueSize = queueSize
			cfg.Archive.BatchSize = batchSize

			validateAndApplyDefaults(cfg)

			return cfg.Archive.QueueSize == queueSize &&
				cfg.Archive.BatchSize == batchSize
		},
		gen.IntRange(1, 100000),
		gen.IntRange(1, 100000),
	))

	properties.Property("non-positive scheduler settings fall back to defaults", prop.ForAll(
		func(pollSec, timeoutMin int) bool {
			cfg := &Config{}
			cfg.Scheduler.PollIntervalSec = pollSec
			cfg.Scheduler.TaskTimeoutMin = timeoutMin

			validateAndApplyDefaults(cfg)

			return cfg.Scheduler.PollIntervalSec == schedulerDefaults.PollIntervalSec &&
				cfg.Scheduler.TaskTimeoutMin == schedulerDefaults.TaskTimeoutMin
		},
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
	))

	properties.Property("empty recurrence rules fall back to defaults", prop.ForAll(
		func(_ int) bool {
			cfg := &Config{}

			validateAndApplyDefaults(cfg)

			return cfg.Scheduler.ArchiveRule == schedulerDefaults.ArchiveRule &&
				cfg.Scheduler.CleanupRule == schedulerDefaults.CleanupRule &&
				cfg.Scheduler.DeepRule == schedulerDefaults.DeepRule
		},
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}
