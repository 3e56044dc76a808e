// Package grading provides the boundary between the application core and
// external AI grading services. It defines the grader and OCR interfaces
// implemented by LLM adapters, and the normalizer that turns a raw model
// response into the canonical GradingResult shape without ever failing.
package grading
