package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbioportal-query-assistant/internal/domain"
)

type fakeStudies struct {
	studies []domain.Study
	err     error
}

func (f fakeStudies) ListStudies(context.Context) ([]domain.Study, error) {
	return f.studies, f.err
}

func manyStudies(n int) []domain.Study {
	out := make([]domain.Study, n)
	for i := range out {
		out[i] = domain.Study{
			StudyID:      fmt.Sprintf("study_%d", i),
			Name:         fmt.Sprintf("Lung Study %d", i),
			Description:  strings.Repeat("x", 150),
			CancerTypeID: "luad",
		}
	}
	return out
}

func TestSearchStudies(t *testing.T) {
	studies := []domain.Study{
		{StudyID: "brca_tcga", Name: "Breast Invasive Carcinoma (TCGA)", CancerTypeID: "brca"},
		{StudyID: "luad_tcga", Name: "Lung Adenocarcinoma", CancerTypeID: "luad"},
		{StudyID: "msk", Name: "MSK-IMPACT", Description: "Includes BREAST tumors", CancerTypeID: "mixed"},
	}
	svc := NewStudyService(fakeStudies{studies: studies})

	got, err := svc.SearchStudies(context.Background(), "Breast")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "brca_tcga", got[0].StudyID)
	assert.Equal(t, "msk", got[1].StudyID)

	got, err = svc.SearchStudies(context.Background(), "luad")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchStudies_Limit(t *testing.T) {
	svc := NewStudyService(fakeStudies{studies: manyStudies(25)})

	got, err := svc.SearchStudies(context.Background(), "lung")
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestStudies_ListTruncates(t *testing.T) {
	studies := manyStudies(25)
	studies[0].CancerTypeID = ""
	svc := NewStudyService(fakeStudies{studies: studies})

	got, err := svc.Studies(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 20)
	assert.Len(t, got[0].Description, 100)
	assert.Equal(t, "unknown", got[0].CancerType)
	assert.Equal(t, "luad", got[1].CancerType)
}

func TestStudies_Error(t *testing.T) {
	svc := NewStudyService(fakeStudies{err: errors.New("down")})

	_, err := svc.Studies(context.Background(), "breast")
	assert.Error(t, err)
	_, err = svc.Studies(context.Background(), "")
	assert.Error(t, err)
}
