package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"quickorder/internal/database"
	"quickorder/internal/models"
)

const (
	EntityVendor      = "vendor"
	EntityGroceryItem = "grocery_item"
	EntityProfile     = "profile"
	EntityOrder       = "order"
)

var (
	ErrAlreadyUndone = errors.New("this change has already been undone")
	ErrNotUndoable   = errors.New("this change cannot be undone")
)

type LogOptions struct {
	// DB lets the log join the caller's transaction; nil uses database.DB.
	DB          *gorm.DB
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// VendorDeletion is the Before snapshot of a vendor delete, including the
// rows removed with it.
type VendorDeletion struct {
	Vendor models.Vendor        `json:"vendor"`
	Items  []models.GroceryItem `json:"items"`
	Orders []models.Order       `json:"orders"`
}

func WriteLog(opts LogOptions) error {
	db := opts.DB
	if db == nil {
		db = database.DB
	}

	// jsonb needs a JSON literal, not an empty string
	beforeStr := "null"
	afterStr := "null"
	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("cannot write audit log: %w", err)
	}
	return nil
}

// UndoLog reverts the change recorded by logID and records the undo itself.
func UndoLog(logID uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log not found: %w", err)
		}
		if log.IsUndone {
			return ErrAlreadyUndone
		}

		var err error
		switch log.Action {
		case models.AuditActionCreate:
			err = deleteEntity(tx, log.EntityType, log.EntityID)
		case models.AuditActionUpdate:
			err = restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData)
		case models.AuditActionDelete:
			err = recreateEntity(tx, log.EntityType, log.BeforeData)
		default:
			err = ErrNotUndoable
		}
		if err != nil {
			return err
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneAt = &now
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("cannot mark log as undone: %w", err)
		}

		undoLog := models.AuditLog{
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Undone: " + log.Description,
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undoLog).Error; err != nil {
			return fmt.Errorf("cannot write undo log: %w", err)
		}
		return nil
	})
}

func deleteEntity(tx *gorm.DB, entityType, entityID string) error {
	switch entityType {
	case EntityVendor:
		if err := tx.Where("vendor_id = ?", entityID).Delete(&models.GroceryItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vendor_id = ?", entityID).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Vendor{}, "id = ?", entityID).Error
	case EntityGroceryItem:
		return tx.Delete(&models.GroceryItem{}, "id = ?", entityID).Error
	default:
		return ErrNotUndoable
	}
}

func recreateEntity(tx *gorm.DB, entityType, dataJSON string) error {
	switch entityType {
	case EntityVendor:
		var snap VendorDeletion
		if err := json.Unmarshal([]byte(dataJSON), &snap); err != nil {
			return err
		}
		if err := tx.Create(&snap.Vendor).Error; err != nil {
			return err
		}
		if len(snap.Items) > 0 {
			if err := tx.Create(&snap.Items).Error; err != nil {
				return err
			}
		}
		if len(snap.Orders) > 0 {
			if err := tx.Create(&snap.Orders).Error; err != nil {
				return err
			}
		}
		return nil

	case EntityGroceryItem:
		var item models.GroceryItem
		if err := json.Unmarshal([]byte(dataJSON), &item); err != nil {
			return err
		}
		return tx.Create(&item).Error

	default:
		return ErrNotUndoable
	}
}

func restoreEntity(tx *gorm.DB, entityType, entityID, dataJSON string) error {
	switch entityType {
	case EntityVendor:
		var v models.Vendor
		if err := json.Unmarshal([]byte(dataJSON), &v); err != nil {
			return err
		}
		return tx.Model(&models.Vendor{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":       v.Name,
			"phone":      v.Phone,
			"is_special": v.IsSpecial,
		}).Error

	case EntityGroceryItem:
		var item models.GroceryItem
		if err := json.Unmarshal([]byte(dataJSON), &item); err != nil {
			return err
		}
		return tx.Model(&models.GroceryItem{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"vendor_id": item.VendorID,
			"name":      item.Name,
			"unit":      item.Unit,
			"category":  item.Category,
			"price":     item.Price,
			"image_key": item.ImageKey,
			"selected":  item.Selected,
			"quantity":  item.Quantity,
		}).Error

	default:
		return ErrNotUndoable
	}
}
