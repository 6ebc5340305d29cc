package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/store"
	"github.com/sirupsen/logrus"
)

// reviewTokenTTL is how long a department review share link stays valid.
const reviewTokenTTL = 30 * 24 * time.Hour

// NextState moves a measure version one step forward through the review
// pipeline. Reaching department review issues a share token; reaching
// published stamps the publication instant and moves the latest flag.
func (s *PageService) NextState(ctx context.Context, measureVersionID uint, updatedBy string) (*model.MeasureVersion, error) {
	var updated *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		mv, err := tx.GetMeasureVersionByID(ctx, measureVersionID)
		if err != nil {
			return err
		}

		next, err := mv.Status.Next()
		if err != nil {
			return ErrInvalidStateTransition
		}

		mv.Status = next
		mv.UpdatedBy = updatedBy

		switch next {
		case model.StatusDepartmentReview:
			token, err := s.generateReviewToken(mv.GUID, mv.Version)
			if err != nil {
				return err
			}
			mv.ReviewToken = token
		case model.StatusPublished:
			if err := s.markPublished(ctx, tx, mv); err != nil {
				return err
			}
		}

		if err := tx.UpdateMeasureVersion(ctx, mv); err != nil {
			return err
		}

		updated = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"guid":    updated.GUID,
		"version": updated.Version,
		"status":  updated.Status,
	}).Info("moved measure version to next state")
	return updated, nil
}

// Reject sends a version under review back to the author.
func (s *PageService) Reject(ctx context.Context, measureVersionID uint, updatedBy string) (*model.MeasureVersion, error) {
	var updated *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		mv, err := tx.GetMeasureVersionByID(ctx, measureVersionID)
		if err != nil {
			return err
		}

		if !mv.Status.CanReject() {
			return ErrInvalidStateTransition
		}

		mv.Status = model.StatusRejected
		mv.UpdatedBy = updatedBy

		if err := tx.UpdateMeasureVersion(ctx, mv); err != nil {
			return err
		}

		updated = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"guid": updated.GUID, "version": updated.Version}).Info("rejected measure version")
	return updated, nil
}

// Unpublish withdraws a published version from the public site. The latest
// flag stays where it is, so the measure keeps a newest version.
func (s *PageService) Unpublish(ctx context.Context, measureVersionID uint, updatedBy string) (*model.MeasureVersion, error) {
	var updated *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		mv, err := tx.GetMeasureVersionByID(ctx, measureVersionID)
		if err != nil {
			return err
		}

		if mv.Status != model.StatusPublished {
			return ErrInvalidStateTransition
		}

		mv.Status = model.StatusUnpublished
		mv.Published = false
		mv.UpdatedBy = updatedBy

		if err := tx.UpdateMeasureVersion(ctx, mv); err != nil {
			return err
		}

		updated = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"guid": updated.GUID, "version": updated.Version}).Info("unpublished measure version")
	return updated, nil
}

// Publish publishes an approved version directly, outside the scheduled run.
func (s *PageService) Publish(ctx context.Context, measureVersionID uint, updatedBy string) (*model.MeasureVersion, error) {
	var updated *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		mv, err := tx.GetMeasureVersionByID(ctx, measureVersionID)
		if err != nil {
			return err
		}

		if mv.Status != model.StatusApproved {
			return ErrInvalidStateTransition
		}

		mv.Status = model.StatusPublished
		mv.UpdatedBy = updatedBy
		if err := s.markPublished(ctx, tx, mv); err != nil {
			return err
		}

		if err := tx.UpdateMeasureVersion(ctx, mv); err != nil {
			return err
		}

		updated = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"guid": updated.GUID, "version": updated.Version}).Info("published measure version")
	return updated, nil
}

// markPublished stamps the publication fields and makes this row the only
// latest version of its lineage, under the lineage lock.
func (s *PageService) markPublished(ctx context.Context, tx store.Store, mv *model.MeasureVersion) error {
	if _, err := tx.LockLineage(ctx, mv.GUID); err != nil {
		return err
	}

	mv.Published = true
	if mv.PublishedAt == nil {
		now := time.Now().UTC()
		mv.PublishedAt = &now
	}
	mv.Latest = true

	return tx.ClearLatest(ctx, mv.GUID, mv.ID)
}

type reviewClaims struct {
	GUID    string `json:"guid"`
	Version string `json:"version"`
	jwt.RegisteredClaims
}

// generateReviewToken signs a share token for the department review page.
func (s *PageService) generateReviewToken(guid, version string) (string, error) {
	now := time.Now()
	claims := reviewClaims{
		GUID:    guid,
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(reviewTokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// VerifyReviewToken checks a share token and returns the guid and version it
// grants access to.
func (s *PageService) VerifyReviewToken(token string) (guid, version string, err error) {
	claims := &reviewClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", "", err
	}
	if !parsed.Valid {
		return "", "", fmt.Errorf("invalid review token")
	}
	return claims.GUID, claims.Version, nil
}
