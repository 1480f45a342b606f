package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type typedStub string

func (t typedStub) EstimatorType() string { return string(t) }

func TestIsRegressorIsClassifier(t *testing.T) {
	tests := []struct {
		name       string
		est        interface{}
		regressor  bool
		classifier bool
	}{
		{"regressor", typedStub(RegressorType), true, false},
		{"classifier", typedStub(ClassifierType), false, true},
		{"undeclared", struct{}{}, false, false},
		{"nil", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.regressor, IsRegressor(tt.est))
			assert.Equal(t, tt.classifier, IsClassifier(tt.est))
		})
	}
}

func TestStateManager(t *testing.T) {
	var s StateManager
	assert.False(t, s.IsFitted())

	s.SetDimensions(4, 100)
	s.SetFitted()
	assert.True(t, s.IsFitted())
	nf, ns := s.GetDimensions()
	assert.Equal(t, 4, nf)
	assert.Equal(t, 100, ns)

	s.Reset()
	assert.False(t, s.IsFitted())
	nf, _ = s.GetDimensions()
	assert.Zero(t, nf)
}

func TestStateManagerConcurrent(t *testing.T) {
	var s StateManager
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetDimensions(i, i)
			_ = s.IsFitted()
		}(i)
	}
	wg.Wait()
	s.SetFitted()
	assert.True(t, s.IsFitted())
}
