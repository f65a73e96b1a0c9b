package llm

import (
	"errors"
	"fmt"
	"strings"

	"ai-chatlog/internal/config"
)

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMissingSecret   = errors.New("llm credentials missing")
)

// Options selects the chat backend and carries its credentials.
type Options struct {
	Provider config.LLMProvider
	Model    string

	// OpenAI compatible endpoints, OpenRouter included
	APIKey   string
	BaseURL  string
	Referrer string
	Title    string

	YandexOAuthToken string
	YandexFolderID   string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Provider:         cfg.LLMProvider,
		Model:            cfg.OpenAIModel,
		APIKey:           cfg.OpenAIAPIKey,
		BaseURL:          cfg.OpenAIBaseURL,
		Referrer:         cfg.OpenRouterReferrer,
		Title:            cfg.OpenRouterTitle,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
}

// New builds the client for opts.Provider. An empty provider means OpenAI.
func New(opts Options) (Client, error) {
	switch config.LLMProvider(strings.ToLower(string(opts.Provider))) {
	case "", config.ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingSecret)
		}
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, opts.Referrer, opts.Title), nil
	case config.ProviderYandex:
		if opts.YandexOAuthToken == "" || opts.YandexFolderID == "" {
			return nil, fmt.Errorf("%w: YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID", ErrMissingSecret)
		}
		return NewYandex(opts.YandexOAuthToken, opts.YandexFolderID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}
}
