package metrics

import (
	"sync"

	"github.com/JNZader/diffparse/internal/diffparser"
)

// Global is the process-wide collector shared by the CLI commands.
var Global = sync.OnceValue(NewCollector)

// AddCounter adds n to the named counter of the global collector.
func AddCounter(name string, n int64) {
	Global().Counter(name).Add(n)
}

// RecordDiff folds one successfully parsed diff of size bytes into c.
func (c *Collector) RecordDiff(size int, diff *diffparser.ParsedDiff) {
	c.Counter(MetricDiffsParsed).Inc()
	c.Counter(MetricBytesRead).Add(int64(size))
	c.Counter(MetricChanges).Add(int64(len(diff.Changes)))
	c.Histogram(MetricDiffSize).Observe(float64(size))

	var files, inserted, deleted, binary int64
	for _, f := range diff.Files() {
		files++
		inserted += int64(f.InsertCount)
		deleted += int64(f.DeleteCount)
		if f.Binary {
			binary++
		}
	}
	c.Counter(MetricFilesParsed).Add(files)
	c.Counter(MetricInsertedLines).Add(inserted)
	c.Counter(MetricDeletedLines).Add(deleted)
	c.Counter(MetricBinaryFiles).Add(binary)
}
