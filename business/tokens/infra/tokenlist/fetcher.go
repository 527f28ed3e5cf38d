// Package tokenlist downloads a token list in the common JSON format.
package tokenlist

import (
	"context"

	"github.com/fd1az/flashroute/business/tokens/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/httpclient"
)

// Fetcher GETs url and decodes the tokens array.
type Fetcher struct {
	client httpclient.Client
	url    string
}

func NewFetcher(client httpclient.Client, url string) *Fetcher {
	return &Fetcher{client: client, url: url}
}

func (f *Fetcher) Fetch(ctx context.Context) ([]domain.ListEntry, error) {
	var list domain.TokenList
	_, err := f.client.NewRequest(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler),
		httpclient.WithLabels(httpclient.Label{Key: "endpoint", Value: "token_list"}),
	).
		SetHeader("Accept", "application/json").
		SetResult(&list).
		Get(ctx, f.url)
	if err != nil {
		return nil, apperror.New(apperror.CodeTokenListFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext(f.url))
	}
	if len(list.Tokens) == 0 {
		return nil, apperror.New(apperror.CodeTokenListInvalid,
			apperror.WithContext("empty tokens array"))
	}
	return list.Tokens, nil
}
