package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cbioportal-query-assistant/internal/domain"
)

const (
	searchLimit       = 10
	listLimit         = 20
	descriptionLength = 100
)

// StudySummary is the trimmed study shape returned to callers
type StudySummary struct {
	StudyID     string `json:"study_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CancerType  string `json:"cancer_type"`
}

// StudyService lists and searches cBioPortal studies
type StudyService struct {
	source domain.StudySource
}

// NewStudyService creates a new study service
func NewStudyService(source domain.StudySource) *StudyService {
	return &StudyService{source: source}
}

// SearchStudies returns up to ten studies whose name, description or cancer
// type id contains cancerType, ignoring case.
func (s *StudyService) SearchStudies(ctx context.Context, cancerType string) ([]domain.Study, error) {
	studies, err := s.source.ListStudies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search studies: %w", err)
	}

	term := strings.ToLower(strings.TrimSpace(cancerType))
	matches := make([]domain.Study, 0, searchLimit)
	for _, st := range studies {
		if strings.Contains(strings.ToLower(st.Name), term) ||
			strings.Contains(strings.ToLower(st.Description), term) ||
			strings.Contains(strings.ToLower(st.CancerTypeID), term) {
			matches = append(matches, st)
			if len(matches) == searchLimit {
				break
			}
		}
	}
	return matches, nil
}

// Studies returns summaries of the first twenty studies, or of the search
// results when cancerType is set.
func (s *StudyService) Studies(ctx context.Context, cancerType string) ([]StudySummary, error) {
	var (
		studies []domain.Study
		err     error
	)
	if strings.TrimSpace(cancerType) != "" {
		studies, err = s.SearchStudies(ctx, cancerType)
	} else {
		studies, err = s.source.ListStudies(ctx)
	}
	if err != nil {
		return nil, err
	}

	if len(studies) > listLimit {
		studies = studies[:listLimit]
	}
	out := make([]StudySummary, len(studies))
	for i, st := range studies {
		ct := st.CancerTypeID
		if ct == "" {
			ct = "unknown"
		}
		out[i] = StudySummary{
			StudyID:     st.StudyID,
			Name:        st.Name,
			Description: truncateRunes(st.Description, descriptionLength),
			CancerType:  ct,
		}
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
