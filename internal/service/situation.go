package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/models"
)

// Classification is the outcome of classifying one remote object: its
// situation plus whatever internal state the lookup already resolved, so
// executors do not repeat the queries.
type Classification struct {
	Situation models.Situation
	Account   *models.Account
	// EntityID is the correlated internal entity for UNLINKED, or the linked
	// entity for LINKED when the account carries an owning relation.
	EntityID *uuid.UUID
}

// EntityFinder correlates a property value to internal entity IDs. One
// implementation per entity type, backed by the matching store.
type EntityFinder interface {
	FindIDsByProperty(ctx context.Context, property string, value any) ([]uuid.UUID, error)
}

// Classifier decides the situation of one remote object from two lookups:
// does an account exist for the UID, and does an internal entity correlate.
type Classifier struct {
	accounts AccountStore
}

// NewClassifier creates a Classifier.
func NewClassifier(accounts AccountStore) *Classifier {
	return &Classifier{accounts: accounts}
}

// Classify returns exactly one of LINKED, UNLINKED or MISSING_ENTITY for a
// remote object present in the snapshot. MISSING_ACCOUNT is never produced
// here: it is classified by the reconciliation pass over accounts absent
// from the snapshot.
//
// A correlation match with more than one result is a typed item-level error
// (ErrCorrelationToManyResults), never silently resolved.
func (c *Classifier) Classify(
	ctx context.Context,
	systemID uuid.UUID,
	entityType models.EntityType,
	uid string,
	correlationValue any,
	correlationProperty string,
	finder EntityFinder,
) (*Classification, error) {
	account, err := c.accounts.FindAccountByUID(ctx, systemID, entityType, uid)
	if err != nil && !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}

	if account != nil {
		cls := &Classification{Situation: models.SituationLinked, Account: account}

		links, err := c.accounts.ListEntityAccountsByAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}

		for i := range links {
			if links[i].Ownership {
				cls.EntityID = &links[i].EntityID

				break
			}
		}

		if cls.EntityID == nil && len(links) > 0 {
			cls.EntityID = &links[0].EntityID
		}

		return cls, nil
	}

	ids, err := finder.FindIDsByProperty(ctx, correlationProperty, correlationValue)
	if err != nil {
		return nil, err
	}

	switch len(ids) {
	case 0:
		return &Classification{Situation: models.SituationMissingEntity}, nil
	case 1:
		return &Classification{Situation: models.SituationUnlinked, EntityID: &ids[0]}, nil
	default:
		return nil, models.ErrCorrelationToManyResults
	}
}
