package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// IAM tokens expire after at most 12h. Reissuing hourly keeps a long running
// bot authorised.
const iamTokenTTL = time.Hour

// YandexClient talks to YandexGPT with an IAM token derived from an OAuth token.
type YandexClient struct {
	ya    yagpt.YaGPTFace
	issue func() (string, error)
	now   func() time.Time

	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("yandex gpt: %w", err)
	}
	c := newYandexClient(ya, func() (string, error) {
		resp, err := iam.Create()
		if err != nil {
			return "", err
		}
		return resp.IamToken, nil
	})
	// a bad OAuth token should stop startup, not the first chat message
	if _, err := c.iamToken(); err != nil {
		return nil, err
	}
	return c, nil
}

func newYandexClient(ya yagpt.YaGPTFace, issue func() (string, error)) *YandexClient {
	return &YandexClient{ya: ya, issue: issue, now: time.Now}
}

// iamToken returns the cached token, reissuing it once it is iamTokenTTL old.
// A failed reissue is not cached so the next call retries.
func (c *YandexClient) iamToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Sub(c.issuedAt) < iamTokenTTL {
		return c.token, nil
	}
	token, err := c.issue()
	if err != nil {
		return "", fmt.Errorf("issue yandex iam token: %w", err)
	}
	if token == "" {
		return "", errors.New("issue yandex iam token: empty token")
	}
	c.token, c.issuedAt = token, c.now()
	return token, nil
}

func toYandexMessages(messages []Message) []yagpt.Message {
	out := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, yagpt.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	token, err := c.iamToken()
	if err != nil {
		return Response{}, err
	}
	resp, err := c.ya.CompletionWithCtx(ctx, token, toYandexMessages(messages))
	if err != nil {
		return Response{}, fmt.Errorf("yandex completion: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, errors.New("yandex completion: no alternatives")
	}
	return Response{
		Content:          resp.Alternatives[0].Message.Content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}
