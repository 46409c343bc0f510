package clean

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/test"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/test/mocks"
)

func TestNewCleaner(t *testing.T) {
	c, err := NewCleaner(&mocks.DB{}, time.Minute*30)
	require.Nil(t, err)
	require.NotNil(t, c)
}

func TestNewCleaner_Fails(t *testing.T) {
	_, err := NewCleaner(nil, time.Minute*30)
	assert.NotNil(t, err)
	_, err = NewCleaner(&mocks.DB{}, 0)
	assert.NotNil(t, err)
}

func TestDo(t *testing.T) {
	dbMock := &mocks.DB{}
	dbMock.On("ReapStale", mock.Anything, time.Minute*30).Return([]string{"1", "2"}, nil)
	dbMock.On("LoadCall", mock.Anything, "1").Return(&persistence.Call{ID: "1", CandidateID: "cnd1"}, nil)
	dbMock.On("LoadCall", mock.Anything, "2").Return(&persistence.Call{ID: "2", CandidateID: "cnd2"}, nil)
	dbMock.On("SetCandidateStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	c, _ := NewCleaner(dbMock, time.Minute*30)

	n, err := c.Do(test.Ctx(t))
	require.Nil(t, err)
	assert.Equal(t, 2, n)
	dbMock.AssertCalled(t, "SetCandidateStatus", mock.Anything, "cnd1", status.Failed.String())
	dbMock.AssertCalled(t, "SetCandidateStatus", mock.Anything, "cnd2", status.Failed.String())
}

func TestDo_Empty(t *testing.T) {
	dbMock := &mocks.DB{}
	dbMock.On("ReapStale", mock.Anything, mock.Anything).Return([]string{}, nil)
	c, _ := NewCleaner(dbMock, time.Minute*30)

	n, err := c.Do(test.Ctx(t))
	require.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestDo_Fails(t *testing.T) {
	dbMock := &mocks.DB{}
	dbMock.On("ReapStale", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("olia err"))
	c, _ := NewCleaner(dbMock, time.Minute*30)

	_, err := c.Do(test.Ctx(t))
	assert.NotNil(t, err)
}

func TestDo_ContinuesOnLoadFailure(t *testing.T) {
	dbMock := &mocks.DB{}
	dbMock.On("ReapStale", mock.Anything, mock.Anything).Return([]string{"1", "2"}, nil)
	dbMock.On("LoadCall", mock.Anything, "1").Return(nil, fmt.Errorf("olia err"))
	dbMock.On("LoadCall", mock.Anything, "2").Return(&persistence.Call{ID: "2", CandidateID: "cnd2"}, nil)
	dbMock.On("SetCandidateStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	c, _ := NewCleaner(dbMock, time.Minute*30)

	n, err := c.Do(test.Ctx(t))
	require.Nil(t, err)
	assert.Equal(t, 2, n)
	dbMock.AssertNumberOfCalls(t, "SetCandidateStatus", 1)
}
