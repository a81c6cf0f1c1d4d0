package config

const (
	defaultConfigPath        = "~/.config/subforge/config.toml"
	projectConfigName        = "subforge.toml"
	defaultCacheDir          = "~/.cache/subforge/subtitles"
	defaultModelsDir         = "~/.local/share/subforge/models"
	defaultLogDir            = "~/.local/share/subforge/logs"
	defaultStateDir          = "~/.local/share/subforge"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultPython            = "python3"
	defaultDevice            = "cpu"
	defaultBeamSize          = 5
	defaultVADMinSilenceMS   = 500
	defaultRecognizerLang    = "auto"
	defaultTranslationURL    = "https://api.openai.com/v1"
	defaultTranslationModel  = "gpt-3.5-turbo"
	defaultTranslationTO     = 60
	defaultRetryAttempts     = 1
	defaultContextLines      = 3
	defaultTargetLanguage    = "zh-Hans"
	defaultPromptName        = "default"
	defaultShutdownTimeoutMS = 2000
	defaultEventBuffer       = 64
	defaultAPIBind           = "127.0.0.1:7610"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// DefaultStandardPrompt is the built-in single-line translation template.
const DefaultStandardPrompt = `Translate the following subtitle text into {language}.
Maintain the original meaning and tone.
Only output the translated text, with no additional explanations, context, or quotation marks.

Text: "{text}"
`

// DefaultContextualPrompt is the built-in context-window translation template.
const DefaultContextualPrompt = `You are a subtitle translator. Based on the surrounding context, translate the current subtitle text into {language}.
Maintain the original meaning and tone.
Only output the translated text for the "current text", with no additional explanations, context, or quotation marks.

Context:
---
{context}
---
Current text: "{text}"
`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir,
			ModelsDir: defaultModelsDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Recognizer: Recognizer{
			Python:          defaultPython,
			Device:          defaultDevice,
			BeamSize:        defaultBeamSize,
			VADMinSilenceMS: defaultVADMinSilenceMS,
			Language:        defaultRecognizerLang,
		},
		Translation: Translation{
			BaseURL:           defaultTranslationURL,
			Model:             defaultTranslationModel,
			TimeoutSeconds:    defaultTranslationTO,
			RetryAttempts:     defaultRetryAttempts,
			ContextLines:      defaultContextLines,
			TargetLanguage:    defaultTargetLanguage,
			StandardPrompts:   map[string]string{defaultPromptName: DefaultStandardPrompt},
			ContextualPrompts: map[string]string{defaultPromptName: DefaultContextualPrompt},
			ActiveStandard:    defaultPromptName,
			ActiveContextual:  defaultPromptName,
		},
		Jobs: Jobs{
			ShutdownTimeoutMS: defaultShutdownTimeoutMS,
			EventBuffer:       defaultEventBuffer,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
