package server

import "context"

type promptKey int

const (
	savePathKey promptKey = iota
	sourcePathKey
)

// WithSavePath attaches the destination the next save prompt answers with.
func WithSavePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, savePathKey, path)
}

// WithSourcePath attaches the file the next source prompt answers with.
func WithSourcePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, sourcePathKey, path)
}

// RequestPrompter answers session prompts from values carried by the request
// context. A missing value cancels the prompt.
type RequestPrompter struct{}

func (RequestPrompter) PromptSource(ctx context.Context) (string, bool) {
	return fromContext(ctx, sourcePathKey)
}

func (RequestPrompter) PromptSave(ctx context.Context) (string, bool) {
	return fromContext(ctx, savePathKey)
}

func fromContext(ctx context.Context, key promptKey) (string, bool) {
	path, _ := ctx.Value(key).(string)
	return path, path != ""
}
