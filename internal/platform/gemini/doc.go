// Package gemini implements the grading boundary interfaces using Google's
// Gemini API: a chat-completion grader that demands strict JSON output, and
// a vision-based OCR client for photographed essays.
package gemini
