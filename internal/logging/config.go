package logging

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // text handler; used in dev
	BackendZap Backend = "zap" // sampled JSON via zap; used in stage/prod
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level   slog.Level
	Env     Env
	Backend Backend
	Debug   bool

	SampleInitial    int
	SampleThereafter int

	AddSource bool
}
