package data

import (
	"errors"

	"gorm.io/gorm"

	"github.com/coparental/guardlink/src/api/policy"
	"github.com/coparental/guardlink/src/api/types"
)

// AuthorizeGuardian resolves whether a guardian may act on a child's
// settings: the guardian must belong to the child's family and the family
// must be shared-custody (proposals are meaningless with a single
// guardian).
func AuthorizeGuardian(db *gorm.DB, guardianID, childID string) (*types.Guardian, error) {
	var child types.Child
	if err := db.First(&child, "id = ?", childID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &policy.Error{Code: policy.CodeNotFound, Message: "child not found"}
		}
		return nil, err
	}

	var guardian types.Guardian
	if err := db.First(&guardian, "id = ?", guardianID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &policy.Error{Code: policy.CodeNotGuardian, Message: "not a guardian of this child"}
		}
		return nil, err
	}
	if guardian.FamilyID != child.FamilyID {
		return nil, &policy.Error{Code: policy.CodeNotGuardian, Message: "not a guardian of this child"}
	}

	var family types.Family
	if err := db.First(&family, "id = ?", child.FamilyID).Error; err != nil {
		return nil, err
	}
	if !family.SharedCustody {
		return nil, &policy.Error{Code: policy.CodeNotSharedCustody, Message: "family is not shared custody"}
	}

	return &guardian, nil
}
