package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/constants"

	"github.com/valyala/fasthttp"
)

const baseURL = "https://api.brawlstars.com/v1"

// ErrRateLimited is returned on an upstream 429. The caller owns the cooldown
// policy; the client never retries.
var ErrRateLimited = errors.New("battlelog upstream rate limited")

// ErrUnavailable covers transport failures and non-429 HTTP errors for one
// player's fetch.
var ErrUnavailable = errors.New("battlelog upstream unavailable")

type Client struct {
	token  string
	client *fasthttp.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		token: cfg.BSAPIToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// BattleLog fetches the recent battle log for one canonical tag, most recent
// first, as delivered upstream.
func (c *Client) BattleLog(ctx context.Context, tag string) ([]BattleEntry, error) {
	u := fmt.Sprintf("%s/players/%s/battlelog", baseURL, url.PathEscape(tag))
	resp, err := doRequest[BattleLogResponse](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func doRequest[T any](ctx context.Context, client *Client, u string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+client.token)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}
	return &result, nil
}

type BattleLogResponse struct {
	Items []BattleEntry `json:"items"`
}

// BattleEntry is one raw battlelog item. event.map is nullable upstream;
// trophyChange is absent on matches that move no trophies.
type BattleEntry struct {
	BattleTime   string       `json:"battleTime"`
	Event        BattleEvent  `json:"event"`
	Battle       BattleDetail `json:"battle"`
	TrophyChange int          `json:"trophyChange"`
}

type BattleEvent struct {
	Mode string  `json:"mode"`
	Map  *string `json:"map"`
}

// BattleDetail carries either teams (team modes, array of arrays) or players
// (showdown, flat array), never both.
type BattleDetail struct {
	Mode    string             `json:"mode"`
	Result  string             `json:"result"`
	Teams   [][]BattleTeammate `json:"teams"`
	Players []BattleTeammate   `json:"players"`
}

type BattleTeammate struct {
	Tag     string        `json:"tag"`
	Brawler BattleBrawler `json:"brawler"`
}

type BattleBrawler struct {
	Name string `json:"name"`
}
