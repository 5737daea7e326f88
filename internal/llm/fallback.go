package llm

import (
	"context"
	"fmt"
)

// Fallback tries Primary first; if it returns an error, tries Secondary.
type Fallback struct {
	Primary   Generator
	Secondary Generator
}

// Generate calls Primary.Generate; on any error other than cancellation, calls Secondary.Generate.
func (f *Fallback) Generate(ctx context.Context, req Request) (string, error) {
	out, err := f.Primary.Generate(ctx, req)
	if err == nil || f.Secondary == nil || ctx.Err() != nil {
		return out, err
	}

	out, secondErr := f.Secondary.Generate(ctx, req)
	if secondErr != nil {
		return "", fmt.Errorf("primary: %v; secondary: %w", err, secondErr)
	}
	return out, nil
}
