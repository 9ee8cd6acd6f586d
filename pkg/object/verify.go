package object

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	Objects int
	ByType  map[ObjectType]int
	Bad     []Hash
}

// Verify re-hashes and decodes every stored object. All failures are
// collected; the returned error is a *multierror.Error when any object is
// bad.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}
	report := &VerifySummary{ByType: make(map[ObjectType]int)}
	var result *multierror.Error
	for _, h := range hashes {
		report.Objects++
		if err := s.verifyOne(h, report); err != nil {
			report.Bad = append(report.Bad, h)
			result = multierror.Append(result, err)
		}
	}
	return report, result.ErrorOrNil()
}

func (s *Store) verifyOne(h Hash, report *VerifySummary) error {
	objType, content, err := s.Read(h)
	if err != nil {
		return fmt.Errorf("verify %s: %w", h, err)
	}
	if actual := HashObject(objType, content); actual != h {
		return fmt.Errorf("verify %s: hash mismatch (computed %s): %w", h, actual, ErrCorruptObject)
	}
	if _, err := ParseObject(objType, content); err != nil {
		return fmt.Errorf("verify %s: %w", h, err)
	}
	report.ByType[objType]++
	return nil
}
