package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnhs-dev/registrar-backend/pkg/enums"
)

// DocumentRequest is one registrar intake: who the student is, which document
// they need, and where the request sits in the workflow. It exclusively owns
// its DocumentFiles; deleting the request destroys them.
type DocumentRequest struct {
	ID                      uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequestID               string              `gorm:"column:request_id;not null;unique" json:"request_id"`
	LearningReferenceNumber string              `gorm:"column:learning_reference_number;not null" json:"learning_reference_number"`
	NameOfStudent           string              `gorm:"column:name_of_student;not null" json:"name_of_student"`
	LastSchoolyearAttended  string              `gorm:"column:last_schoolyear_attended" json:"last_schoolyear_attended"`
	Gender                  enums.Gender        `gorm:"column:gender;type:gender;not null" json:"gender"`
	Grade                   string              `gorm:"column:grade;not null" json:"grade"`
	Section                 string              `gorm:"column:section;not null" json:"section"`
	Major                   *string             `gorm:"column:major" json:"major,omitempty"`
	Adviser                 string              `gorm:"column:adviser;not null" json:"adviser"`
	ContactNumber           string              `gorm:"column:contact_number;not null" json:"contact_number"`
	PersonRequestingName    string              `gorm:"column:person_requesting_name;not null" json:"person_requesting_name"`
	RequestFor              enums.RequestFor    `gorm:"column:request_for;type:request_for;not null" json:"request_for"`
	SignatureURL            string              `gorm:"column:signature_url" json:"signature_url"`
	Status                  enums.RequestStatus `gorm:"column:status;type:request_status;not null;default:pending" json:"status"`
	Remarks                 *string             `gorm:"column:remarks" json:"remarks,omitempty"`
	ProcessedAt             *time.Time          `gorm:"column:processed_at" json:"processed_at"`
	Files                   []DocumentFile      `gorm:"foreignKey:DocumentRequestID" json:"files,omitempty"`
	CreatedAt               time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName fixes the table independent of GORM pluralization rules.
func (DocumentRequest) TableName() string {
	return "document_requests"
}
