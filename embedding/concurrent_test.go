// SPDX-License-Identifier: GPL-3.0-or-later
package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CrawX/go-mail-receptionist/domain"
	"github.com/CrawX/go-mail-receptionist/domain/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func Test_EmbedAllConcurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)

	text1, text2, text3 := "a", "b", "c"
	err := errors.New("error")
	vector1, vector3 := domain.Vector{1}, domain.Vector{3}

	wg := &sync.WaitGroup{}
	wg.Add(3)

	// text1 is OK (no error)
	embedder.EXPECT().Embed(gomock.Any(), gomock.Eq(text1)).DoAndReturn(func(_ context.Context, _ string) (domain.Vector, error) {
		wg.Done()
		wg.Wait()
		return vector1, nil
	})

	// text2 returns an error, the retry still returns the error
	embedder.EXPECT().Embed(gomock.Any(), gomock.Eq(text2)).DoAndReturn(func(_ context.Context, _ string) (domain.Vector, error) {
		wg.Done()
		wg.Wait()
		return nil, err
	})
	embedder.EXPECT().Embed(gomock.Any(), gomock.Eq(text2)).Return(nil, err)

	// text3 returns an error, the retry is ok
	embedder.EXPECT().Embed(gomock.Any(), gomock.Eq(text3)).DoAndReturn(func(_ context.Context, _ string) (domain.Vector, error) {
		wg.Done()
		wg.Wait()
		return nil, err
	})
	embedder.EXPECT().Embed(gomock.Any(), gomock.Eq(text3)).Return(vector3, nil)

	resultsChan := make(chan []*domain.EmbeddingResult)
	go func() {
		resultsChan <- EmbedAll(context.Background(), embedder, []string{text1, text2, text3}, 3)
	}()

	timeoutChan := time.After(time.Millisecond * 50)
	select {
	case results := <-resultsChan:
		assert.Len(t, results, 3, "aggregated results should have a length of 3")
		assert.Equal(t, &domain.EmbeddingResult{Vector: vector1}, results[0], "text1 should not have caused errors")
		assert.Equal(t, err, results[1].Error, "text2 should still return the error after retry")
		assert.Equal(t, &domain.EmbeddingResult{Vector: vector3}, results[2], "text3 should be ok after retry")
	case <-timeoutChan:
		assert.Fail(t, "timeout when embedding concurrently")
	}
}

func Test_EmbedAllCancelledNoRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder.EXPECT().Embed(gomock.Any(), gomock.Eq("a")).Return(nil, context.Canceled)

	results := EmbedAll(ctx, embedder, []string{"a"}, 0)
	assert.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
}
