// Package gemini implements completion.Service on top of Google's Gemini API
// via google.golang.org/genai.
package gemini
