package config

const (
	defaultStagingDir         = "~/.local/share/reelsmith/staging"
	defaultLibraryDir         = "~/.local/share/reelsmith/library"
	defaultLogDir             = "~/.local/share/reelsmith/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds  = 60
	defaultTTSBaseURL         = "https://api.elevenlabs.io"
	defaultTTSTimeoutSeconds  = 60
	defaultVoiceCacheSeconds  = 60
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultRenderWidth        = 1080
	defaultRenderHeight       = 1920
	defaultRenderFPS          = 30
	defaultRenderTimeout      = 300
	defaultStageTimeout       = 240
	defaultMaxConcurrentJobs  = 4
	defaultKeepProjects       = 20
	defaultErrorRetryInterval = 5
	defaultLogFormat          = "text"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:           defaultTTSBaseURL,
			TimeoutSeconds:    defaultTTSTimeoutSeconds,
			VoiceCacheSeconds: defaultVoiceCacheSeconds,
		},
		Render: Render{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			Width:          defaultRenderWidth,
			Height:         defaultRenderHeight,
			FPS:            defaultRenderFPS,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Workflow: Workflow{
			StageTimeout:       defaultStageTimeout,
			MaxConcurrentJobs:  defaultMaxConcurrentJobs,
			KeepProjects:       defaultKeepProjects,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
