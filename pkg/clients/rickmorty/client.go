// Package rickmorty is a typed client for the Rick and Morty API.
package rickmorty

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samvad-hq/api-mastery/pkg/httpclient"
)

const (
	DefaultBaseURL   = "https://rickandmortyapi.com/api"
	DefaultUserAgent = "api-mastery/phase1b-rmapi"
)

// ErrNoMatch is returned when a name search succeeds but yields no characters.
var ErrNoMatch = errors.New("no character matches")

// Info is the pagination block of a list response.
type Info struct {
	Count int     `json:"count" validate:"gte=0"`
	Pages int     `json:"pages" validate:"gte=0"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// Character is the compact character view; status and species may be absent.
type Character struct {
	ID      int    `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Status  string `json:"status,omitempty"`
	Species string `json:"species,omitempty"`
}

// CharacterPage is one page of /character.
type CharacterPage struct {
	Info    Info        `json:"info"`
	Results []Character `json:"results" validate:"required,dive"`
}

// Client talks to the Rick and Morty API.
type Client struct {
	req httpclient.Requester
}

// New builds a client with its own dispatcher. Empty BaseURL and UserAgent
// fall back to DefaultBaseURL and DefaultUserAgent.
func New(cfg httpclient.Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	d, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("rickmorty dispatcher: %w", err)
	}
	return NewWithRequester(d), nil
}

// NewWithRequester wraps an existing requester.
func NewWithRequester(r httpclient.Requester) *Client {
	return &Client{req: r}
}

// ListCharacters returns a page, optionally filtered by name. Zero page means the API default.
func (c *Client) ListCharacters(ctx context.Context, page int, name string) (CharacterPage, error) {
	query := make(map[string]string, 2)
	if page > 0 {
		query["page"] = strconv.Itoa(page)
	}
	if name = strings.TrimSpace(name); name != "" {
		query["name"] = name
	}

	resp, err := c.req.Do(ctx, httpclient.Request{Path: "character", Query: query})
	if err != nil {
		return CharacterPage{}, err
	}
	return httpclient.Decode[CharacterPage](resp)
}

// GetCharacter fetches by numeric id, otherwise searches by name and returns
// the first match.
func (c *Client) GetCharacter(ctx context.Context, idOrName string) (Character, error) {
	key := strings.TrimSpace(idOrName)
	if key == "" {
		return Character{}, errors.New("character id or name is required")
	}

	if id, err := strconv.Atoi(key); err == nil {
		resp, err := c.req.Do(ctx, httpclient.Request{Path: "character/" + strconv.Itoa(id)})
		if err != nil {
			return Character{}, err
		}
		return httpclient.Decode[Character](resp)
	}

	page, err := c.ListCharacters(ctx, 0, key)
	if err != nil {
		return Character{}, err
	}
	if len(page.Results) == 0 {
		return Character{}, fmt.Errorf("%w %q", ErrNoMatch, key)
	}
	return page.Results[0], nil
}
