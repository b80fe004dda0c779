package events

import (
	"github.com/artcorner/art-corner-server/cmd/models"
	"gorm.io/gorm"
)

// WriteAuditLog records privileged and lifecycle-relevant events as
// append-only audit rows.
func WriteAuditLog(tx *gorm.DB, e Event) error {
	switch ev := e.(type) {

	case UserBlocked:
		return appendAudit(tx, models.AuditLog{
			Action:      "user.block",
			PerformedBy: ev.AdminID,
			TargetType:  models.ResourceUser,
			TargetID:    ev.UserID,
		})

	case UserUnblocked:
		return appendAudit(tx, models.AuditLog{
			Action:      "user.unblock",
			PerformedBy: ev.AdminID,
			TargetType:  models.ResourceUser,
			TargetID:    ev.UserID,
		})

	case UserDeleted:
		return appendAudit(tx, models.AuditLog{
			Action:      "user.delete",
			PerformedBy: ev.AdminID,
			TargetType:  models.ResourceUser,
			TargetID:    ev.UserID,
		})

	case OrderPlaced:
		return appendAudit(tx, models.AuditLog{
			Action:      "order.place",
			PerformedBy: ev.BuyerID,
			Details:     metaJSON(map[string]interface{}{"order_id": ev.OrderID, "reference": ev.Reference, "total": ev.Total}),
		})

	case OrderStatusChanged:
		return appendAudit(tx, models.AuditLog{
			Action:      "order.status",
			PerformedBy: ev.AdminID,
			Details:     metaJSON(map[string]interface{}{"order_id": ev.OrderID, "status": ev.Status}),
		})

	case ReportFiled:
		return appendAudit(tx, models.AuditLog{
			Action:      "report.file",
			PerformedBy: ev.ReporterID,
			TargetType:  ev.TargetType,
			TargetID:    ev.TargetID,
			Details:     metaJSON(map[string]interface{}{"report_id": ev.ReportID}),
		})

	case ReportResolved:
		return appendAudit(tx, models.AuditLog{
			Action:      "report.resolve",
			PerformedBy: ev.AdminID,
			Details:     metaJSON(map[string]interface{}{"report_id": ev.ReportID}),
		})

	case CollaboratorRemoved:
		return appendAudit(tx, models.AuditLog{
			Action:      "gallery.collaborator_remove",
			PerformedBy: ev.OwnerID,
			TargetType:  models.ResourceGallery,
			TargetID:    ev.GalleryID,
			Details:     metaJSON(map[string]interface{}{"user_id": ev.UserID}),
		})
	}

	return nil
}

func appendAudit(tx *gorm.DB, entry models.AuditLog) error {
	return tx.Create(&entry).Error
}
