package database

import (
	"log"

	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

// Demo user IDs.
const (
	userIDChief      int64 = 1
	userIDTechLopez  int64 = 2
	userIDTechNguyen int64 = 3
	userIDSupply     int64 = 4
)

// SeedDemoData 写入本地开发用的演示数据
// 已有用户数据时跳过，保证可重复启动
func SeedDemoData(db *gorm.DB) {
	var userCount int64
	if err := db.Model(&maintdb.User{}).Count(&userCount).Error; err != nil {
		log.Printf("Warning: failed to check users table: %v", err)
		return
	}
	if userCount > 0 {
		log.Printf("users table already has %d rows, skipping demo seed", userCount)
		return
	}

	users := []maintdb.User{
		{BaseModel: maintdb.BaseModel{ID: userIDChief}, Username: "chief.ramirez", DisplayName: "Chief Ramirez", Active: true},
		{BaseModel: maintdb.BaseModel{ID: userIDTechLopez}, Username: "tech.lopez", DisplayName: "A. Lopez", Active: true},
		{BaseModel: maintdb.BaseModel{ID: userIDTechNguyen}, Username: "tech.nguyen", DisplayName: "T. Nguyen", Active: true},
		{BaseModel: maintdb.BaseModel{ID: userIDSupply}, Username: "supply.okafor", DisplayName: "C. Okafor", Active: false},
	}
	for _, u := range users {
		if err := db.Create(&u).Error; err != nil {
			log.Printf("Warning: failed to create user %s: %v", u.Username, err)
		}
	}

	meter1 := 1250.5
	meter2 := 340.0
	assets := []maintdb.Asset{
		{SerialNumber: "AC-2204-001", Name: "Aircraft 204-001", Meter1: &meter1, Meter2: &meter2},
		{SerialNumber: "AC-2204-002", Name: "Aircraft 204-002"},
		{SerialNumber: "GSE-0051", Name: "Ground Power Unit 51"},
	}
	for i := range assets {
		if err := db.Create(&assets[i]).Error; err != nil {
			log.Printf("Warning: failed to create asset %s: %v", assets[i].SerialNumber, err)
		}
	}

	assigned := userIDTechLopez
	set := maintdb.MaintenanceActionSet{
		AssetID:        assets[0].ID,
		TaskName:       "100-hour inspection",
		Description:    "Scheduled 100-hour airframe inspection",
		Status:         maintdb.ActionSetStatusPlanned,
		Priority:       maintdb.PriorityHigh,
		AssignedUserID: &assigned,
	}
	if err := db.Create(&set).Error; err != nil {
		log.Printf("Warning: failed to create demo action set: %v", err)
		return
	}

	actions := []maintdb.Action{
		{MaintenanceActionSetID: set.ID, ActionName: "Remove inspection panels", SequenceOrder: 1, Status: maintdb.ActionStatusNotStarted},
		{MaintenanceActionSetID: set.ID, ActionName: "Inspect control cables", SequenceOrder: 2, Status: maintdb.ActionStatusNotStarted},
		{MaintenanceActionSetID: set.ID, ActionName: "Replace hydraulic filter", SequenceOrder: 3, Status: maintdb.ActionStatusNotStarted},
		{MaintenanceActionSetID: set.ID, ActionName: "Reinstall panels and ops check", SequenceOrder: 4, Status: maintdb.ActionStatusNotStarted},
	}
	for i := range actions {
		if err := db.Create(&actions[i]).Error; err != nil {
			log.Printf("Warning: failed to create demo action: %v", err)
		}
	}

	requestedBy := userIDTechLopez
	demand := maintdb.PartDemand{
		ActionID:         actions[2].ID,
		PartName:         "Hydraulic filter element P/N 88-4415",
		QuantityRequired: 1,
		Status:           maintdb.PartDemandStatusPendingManager,
		Priority:         maintdb.PriorityHigh,
		RequestedByID:    &requestedBy,
	}
	if err := db.Create(&demand).Error; err != nil {
		log.Printf("Warning: failed to create demo part demand: %v", err)
	}

	log.Printf("demo seed complete: %d users, %d assets, 1 action set", len(users), len(assets))
}
