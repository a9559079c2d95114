// Package pipeline provides a framework for executing audit steps in
// sequence.
//
// An audit runs a site through multiple stages: crawling, robots and TLS
// checks, PageSpeed collection, finding analysis, recommendation
// generation, and scoring. Each stage is implemented as a Step that
// receives the accumulating report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running audits
// 4. Optional stages (PageSpeed, AI advice) become optional steps
//
// The pipeline supports both single audits and batch processing with
// concurrency control using errgroup.
package pipeline
