// Package pokeapi is a small typed client for PokéAPI.
package pokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/api-mastery/pkg/httpclient"
)

const (
	DefaultBaseURL   = "https://pokeapi.co/api/v2"
	DefaultUserAgent = "api-mastery/phase1"
)

// PokemonListItem is one entry of a list page.
type PokemonListItem struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// PokemonList is one offset/limit page.
type PokemonList struct {
	Count    int               `json:"count" validate:"gte=0"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []PokemonListItem `json:"results" validate:"required,dive"`
}

// PokemonSummary is the compact view of a pokemon.
type PokemonSummary struct {
	Name      string   `json:"name"`
	ID        int      `json:"id"`
	Height    int      `json:"height"`
	Weight    int      `json:"weight"`
	Abilities []string `json:"abilities"`
}

type pokemonDetail struct {
	ID        int    `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Height    int    `json:"height"`
	Weight    int    `json:"weight"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name" validate:"required"`
		} `json:"ability"`
	} `json:"abilities" validate:"dive"`
}

// Client talks to PokéAPI.
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
		return nil, fmt.Errorf("pokeapi dispatcher: %w", err)
	}
	return NewWithRequester(d), nil
}

// NewWithRequester wraps an existing requester.
func NewWithRequester(r httpclient.Requester) *Client {
	return &Client{req: r}
}

// ListPokemon returns one page using offset+limit pagination.
func (c *Client) ListPokemon(ctx context.Context, limit, offset int) (PokemonList, error) {
	if limit < 1 || offset < 0 {
		return PokemonList{}, fmt.Errorf("invalid page limit=%d offset=%d", limit, offset)
	}
	resp, err := c.req.Do(ctx, httpclient.Request{
		Path: "pokemon",
		Query: map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		},
	})
	if err != nil {
		return PokemonList{}, err
	}
	return httpclient.Decode[PokemonList](resp)
}

// GetPokemon returns a summary by name or numeric id.
func (c *Client) GetPokemon(ctx context.Context, nameOrID string) (PokemonSummary, error) {
	key := strings.ToLower(strings.TrimSpace(nameOrID))
	if key == "" {
		return PokemonSummary{}, errors.New("pokemon name or id is required")
	}

	resp, err := c.req.Do(ctx, httpclient.Request{Path: "pokemon/" + url.PathEscape(key)})
	if err != nil {
		return PokemonSummary{}, err
	}
	detail, err := httpclient.Decode[pokemonDetail](resp)
	if err != nil {
		return PokemonSummary{}, err
	}

	abilities := make([]string, 0, len(detail.Abilities))
	for _, a := range detail.Abilities {
		abilities = append(abilities, a.Ability.Name)
	}
	return PokemonSummary{
		Name:      detail.Name,
		ID:        detail.ID,
		Height:    detail.Height,
		Weight:    detail.Weight,
		Abilities: abilities,
	}, nil
}
