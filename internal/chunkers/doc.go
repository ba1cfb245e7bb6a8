// Package chunkers provides boundary-respecting text segmentation.
//
// Prose is split on sentence boundaries and accumulated greedily up to
// the configured maximum segment size, seeding each new segment with a
// trailing-sentence overlap. Code is split on structural boundaries
// (function, class, control-flow and comment openers) with a
// line-lookback overlap. The Splitter dispatches on content kind.
package chunkers
