package core

import "context"

// Translator is any service that can translate text between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}
