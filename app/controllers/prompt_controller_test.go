package controllers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/shortener"
)

type fakeShareLinkResolver struct {
	byID      map[uint]*models.Prompt
	byLink    map[string]*models.Prompt
	linkCalls int
}

func (f *fakeShareLinkResolver) GetByID(id uint) (*models.Prompt, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeShareLinkResolver) GetByShareLink(shareLink string) (*models.Prompt, error) {
	f.linkCalls++
	if p, ok := f.byLink[shareLink]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func TestResolveShareLinkDecodesIDWithoutFallback(t *testing.T) {
	link := shortener.EncodeID(42)
	prompt := &models.Prompt{ID: 42, Title: "Fractions warmup", ShareLink: link}
	repo := &fakeShareLinkResolver{byID: map[uint]*models.Prompt{42: prompt}}

	got, err := resolveShareLink(repo, link)
	require.NoError(t, err)
	assert.Equal(t, prompt, got)
	assert.Zero(t, repo.linkCalls)
}

func TestResolveShareLinkFallsBackForTempLinks(t *testing.T) {
	prompt := &models.Prompt{Title: "Draft", ShareLink: "temp-a1b2c3d4"}
	repo := &fakeShareLinkResolver{
		byLink: map[string]*models.Prompt{"temp-a1b2c3d4": prompt},
	}

	got, err := resolveShareLink(repo, "temp-a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, prompt, got)
	assert.Equal(t, 1, repo.linkCalls)
}

func TestResolveShareLinkRejectsMismatchedStoredLink(t *testing.T) {
	link := shortener.EncodeID(7)
	other := &models.Prompt{ID: 7, Title: "Other", ShareLink: "something-else"}
	repo := &fakeShareLinkResolver{byID: map[uint]*models.Prompt{7: other}}

	_, err := resolveShareLink(repo, link)
	assert.Error(t, err)
	assert.Equal(t, 1, repo.linkCalls)
}
