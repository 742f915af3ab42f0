package service

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

// stubLocker 用内存开关代替 Redis 完成锁
type stubLocker struct {
	acquired     bool
	acquireCalls int
	deleteCalls  int
}

func (s *stubLocker) AcquireLock(key string, value string, expiry time.Duration) (bool, error) {
	s.acquireCalls++
	return s.acquired, nil
}

func (s *stubLocker) Delete(key string) {
	s.deleteCalls++
}

var _ = Describe("MaintenanceService", func() {
	var (
		db    *gorm.DB
		svc   *MaintenanceService
		asset *maintdb.Asset
		chief Actor
	)

	BeforeEach(func() {
		db = newTestDB()
		svc = NewMaintenanceService(db, zap.NewNop())
		asset = seedTestAsset(db, "AC-2204-001")
		user := seedTestUser(db, "chief", true)
		chief = UserActor(user.ID, user.Username)
	})

	Describe("CreateActionSet", func() {
		It("creates a planned action set with a default priority", func() {
			set, err := svc.CreateActionSet(chief, ActionSetCreateDTO{
				AssetID:  asset.ID,
				TaskName: "100-hour inspection",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Status).To(Equal(maintdb.ActionSetStatusPlanned))
			Expect(set.Priority).To(Equal(maintdb.PriorityMedium))
			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Maintenance created: 100-hour inspection by chief"))
		})

		It("requires a task name and a known priority", func() {
			_, err := svc.CreateActionSet(chief, ActionSetCreateDTO{AssetID: asset.ID})
			Expect(IsValidationError(err)).To(BeTrue())

			_, err = svc.CreateActionSet(chief, ActionSetCreateDTO{
				AssetID:  asset.ID,
				TaskName: "inspection",
				Priority: "Extreme",
			})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("requires an existing asset", func() {
			_, err := svc.CreateActionSet(chief, ActionSetCreateDTO{AssetID: 9999, TaskName: "inspection"})
			Expect(IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Start", func() {
		It("moves a planned action set to in progress", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			Expect(svc.Start(set.ID, chief)).To(Succeed())

			updated := reloadSet(db, set.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionSetStatusInProgress))
			Expect(updated.StartDate).NotTo(BeNil())
			Expect(visibleContents(db, set.ID)).To(ContainElement("Maintenance started by chief"))
		})

		It("rejects any other starting state", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusComplete)
			Expect(IsInvalidTransition(svc.Start(set.ID, chief))).To(BeTrue())
		})
	})

	Describe("Assign", func() {
		It("assigns to an active technician and leaves a human comment", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			tech := seedTestUser(db, "lopez", true)

			Expect(svc.Assign(set.ID, chief, AssignDTO{
				AssignedUserID: tech.ID,
				Priority:       string(maintdb.PriorityHigh),
				Notes:          "check hydraulics first",
			})).To(Succeed())

			updated := reloadSet(db, set.ID)
			Expect(*updated.AssignedUserID).To(Equal(tech.ID))
			Expect(*updated.AssignedByID).To(Equal(chief.UserID))
			Expect(updated.Priority).To(Equal(maintdb.PriorityHigh))

			contents := visibleContents(db, set.ID)
			Expect(contents).To(ContainElement("Assigned to lopez"))
			Expect(contents).To(ContainElement("Notes: check hydraulics first"))
		})

		It("rejects an inactive technician", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			former := seedTestUser(db, "former", false)
			err := svc.Assign(set.ID, chief, AssignDTO{AssignedUserID: former.ID})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("rejects an unknown technician", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			err := svc.Assign(set.ID, chief, AssignDTO{AssignedUserID: 9999})
			Expect(IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Cancel", func() {
		It("cancels a planned or in-progress action set", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			Expect(svc.Cancel(set.ID, chief, "asset retired")).To(Succeed())

			updated := reloadSet(db, set.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionSetStatusCancelled))
			Expect(updated.EndDate).NotTo(BeNil())
			Expect(updated.CompletionNotes).To(Equal("asset retired"))
			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Maintenance cancelled by chief. Notes: asset retired"))
		})

		It("rejects cancelling a completed action set", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusComplete)
			Expect(IsInvalidTransition(svc.Cancel(set.ID, chief, ""))).To(BeTrue())
		})
	})

	Describe("CompleteFromWorkPortal", func() {
		var locks *stubLocker

		completion := func(meter1 float64, hours float64) CompletionDTO {
			return CompletionDTO{
				CompletionComment: "all checks passed",
				StartDate:         maintdb.Now(),
				EndDate:           maintdb.Now(),
				BillableHours:     hours,
				MeterVerified:     true,
				Meter1:            &meter1,
			}
		}

		BeforeEach(func() {
			locks = &stubLocker{acquired: true}
			svc = svc.WithCompletionLocker(locks)
		})

		It("requires verified meter readings", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			dto := completion(1200, 5)
			dto.MeterVerified = false
			Expect(IsValidationError(svc.CompleteFromWorkPortal(set.ID, chief, dto))).To(BeTrue())
			// 核验在拿锁之前失败
			Expect(locks.acquireCalls).To(Equal(0))
		})

		It("completes the set, snapshots the meters and narrates", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			Expect(svc.CompleteFromWorkPortal(set.ID, chief, completion(1200, 5))).To(Succeed())

			updated := reloadSet(db, set.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionSetStatusComplete))
			Expect(*updated.ActualBillableHours).To(Equal(5.0))
			Expect(*updated.CompletedByID).To(Equal(chief.UserID))
			Expect(updated.MeterReadingID).NotTo(BeNil())

			var history []maintdb.MeterHistory
			Expect(db.Where("asset_id = ?", asset.ID).Find(&history).Error).To(Succeed())
			Expect(history).To(HaveLen(1))
			Expect(*history[0].Meter1).To(Equal(1200.0))

			var reloaded maintdb.Asset
			Expect(db.First(&reloaded, asset.ID).Error).To(Succeed())
			Expect(*reloaded.Meter1).To(Equal(1200.0))

			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Maintenance completed by chief. all checks passed"))
			Expect(locks.deleteCalls).To(Equal(1))
		})

		It("requires at least one meter value", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			dto := completion(0, 5)
			dto.Meter1 = nil
			Expect(IsValidationError(svc.CompleteFromWorkPortal(set.ID, chief, dto))).To(BeTrue())
		})

		It("rolls back the meter snapshot when a later check fails", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			Expect(db.Model(asset).Update("meter1", 1000.0).Error).To(Succeed())

			err := svc.CompleteFromWorkPortal(set.ID, chief, completion(1200, -1))
			Expect(IsValidationError(err)).To(BeTrue())

			var count int64
			Expect(db.Model(&maintdb.MeterHistory{}).Where("asset_id = ?", asset.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())

			var reloaded maintdb.Asset
			Expect(db.First(&reloaded, asset.ID).Error).To(Succeed())
			Expect(*reloaded.Meter1).To(Equal(1000.0))
			Expect(reloadSet(db, set.ID).Status).To(Equal(maintdb.ActionSetStatusInProgress))
			Expect(locks.deleteCalls).To(Equal(1))
		})

		It("refuses to run when the completion lock is held elsewhere", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			locks.acquired = false
			Expect(IsInvalidState(svc.CompleteFromWorkPortal(set.ID, chief, completion(1200, 5)))).To(BeTrue())
			Expect(locks.deleteCalls).To(BeZero())
		})

		It("rejects completing a blocked set", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			seedTestAction(db, set.ID, 1, "drain", maintdb.ActionStatusBlocked)
			Expect(IsInvalidState(svc.CompleteFromWorkPortal(set.ID, chief, completion(1200, 5)))).To(BeTrue())
		})
	})

	Describe("Reopen", func() {
		It("reopens a completed action set and clears the end date", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusComplete)
			now := maintdb.Now()
			Expect(db.Model(set).Update("end_date", now).Error).To(Succeed())

			Expect(svc.Reopen(set.ID, chief, "post-flight discrepancy")).To(Succeed())

			updated := reloadSet(db, set.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionSetStatusInProgress))
			Expect(updated.EndDate).To(BeNil())
			Expect(visibleContents(db, set.ID)).To(Equal([]string{
				"Maintenance reopened by chief",
				"Reason: post-flight discrepancy",
			}))
		})

		It("rejects reopening an action set that is not terminal", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			Expect(IsInvalidTransition(svc.Reopen(set.ID, chief, ""))).To(BeTrue())
		})
	})

	Describe("AddDelay", func() {
		It("requires a reason", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			_, err := svc.AddDelay(set.ID, chief, DelayCreateDTO{})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("records the delay and marks the action set delayed", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			delay, err := svc.AddDelay(set.ID, chief, DelayCreateDTO{
				DelayType:   "Parts",
				DelayReason: "backordered filter",
				DelayNotes:  "ETA next week",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(delay.IsActive()).To(BeTrue())

			updated := reloadSet(db, set.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionSetStatusDelayed))
			Expect(updated.DelayNotes).To(Equal("ETA next week"))
		})

		It("keeps a terminal action set status unchanged", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusCancelled)
			_, err := svc.AddDelay(set.ID, chief, DelayCreateDTO{DelayReason: "late paperwork"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reloadSet(db, set.ID).Status).To(Equal(maintdb.ActionSetStatusCancelled))
		})
	})

	Describe("GetActionSet", func() {
		It("preloads actions in sequence order", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			seedTestAction(db, set.ID, 2, "refill", maintdb.ActionStatusNotStarted)
			seedTestAction(db, set.ID, 1, "drain", maintdb.ActionStatusNotStarted)

			loaded, err := svc.GetActionSet(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Actions).To(HaveLen(2))
			Expect(loaded.Actions[0].ActionName).To(Equal("drain"))
			Expect(loaded.Actions[1].ActionName).To(Equal("refill"))
		})

		It("reports a missing action set", func() {
			_, err := svc.GetActionSet(9999)
			Expect(IsNotFound(err)).To(BeTrue())
		})
	})
})

var _ = Describe("BillableHoursService", func() {
	var (
		db    *gorm.DB
		svc   *BillableHoursService
		set   *maintdb.MaintenanceActionSet
		chief Actor
	)

	seedHours := func(values ...float64) {
		for i, v := range values {
			hours := v
			Expect(db.Create(&maintdb.Action{
				MaintenanceActionSetID: set.ID,
				SequenceOrder:          i + 1,
				ActionName:             "step",
				Status:                 maintdb.ActionStatusComplete,
				BillableHours:          &hours,
			}).Error).To(Succeed())
		}
	}

	BeforeEach(func() {
		db = newTestDB()
		svc = NewBillableHoursService(db, zap.NewNop())
		asset := seedTestAsset(db, "AC-2204-001")
		set = seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
		user := seedTestUser(db, "chief", true)
		chief = UserActor(user.ID, user.Username)
	})

	It("sums action hours treating missing values as zero", func() {
		seedHours(2, 3.5)
		Expect(db.Create(&maintdb.Action{
			MaintenanceActionSetID: set.ID,
			SequenceOrder:          3,
			ActionName:             "no hours yet",
			Status:                 maintdb.ActionStatusInProgress,
		}).Error).To(Succeed())

		total, err := svc.CalculatedHours(set.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(5.5))
	})

	It("rejects a negative manual override", func() {
		Expect(IsValidationError(svc.SetActualHours(set.ID, chief, -1))).To(BeTrue())
	})

	It("records a manual override with the previous value", func() {
		Expect(svc.SetActualHours(set.ID, chief, 4)).To(Succeed())
		Expect(svc.SetActualHours(set.ID, chief, 6)).To(Succeed())

		contents := visibleContents(db, set.ID)
		Expect(contents).To(ContainElement("Billable hours updated: 4.00h"))
		Expect(contents).To(ContainElement("Billable hours updated: 6.00h (was 4.00h)"))
	})

	It("stays silent when the override matches the current value", func() {
		Expect(svc.SetActualHours(set.ID, chief, 4)).To(Succeed())
		before := visibleContents(db, set.ID)
		Expect(svc.SetActualHours(set.ID, chief, 4)).To(Succeed())
		Expect(visibleContents(db, set.ID)).To(Equal(before))
	})

	It("syncs the actual value back to the calculated sum", func() {
		seedHours(2, 3)
		Expect(svc.SetActualHours(set.ID, chief, 20)).To(Succeed())
		Expect(svc.SyncToCalculated(set.ID, chief)).To(Succeed())

		Expect(*reloadSet(db, set.ID).ActualBillableHours).To(Equal(5.0))
		Expect(visibleContents(db, set.ID)).To(ContainElement(
			"Billable hours synced to calculated sum: 5.00h (was 20.00h)"))
	})

	It("produces a validation report with warnings", func() {
		seedHours(2, 3)
		Expect(svc.SetActualHours(set.ID, chief, 30)).To(Succeed())

		report, err := svc.Validate(set.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.CalculatedHours).To(Equal(5.0))
		Expect(*report.ActualHours).To(Equal(30.0))
		Expect(report.IsSynced).To(BeFalse())
		Expect(report.IsOverride).To(BeTrue())
		Expect(report.Warning).To(ContainSubstring("more than 4x"))
	})

	It("reports a synced set without warnings", func() {
		seedHours(2, 3)
		Expect(svc.SyncToCalculated(set.ID, chief)).To(Succeed())

		report, err := svc.Validate(set.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.IsSynced).To(BeTrue())
		Expect(report.IsOverride).To(BeFalse())
		Expect(report.Warning).To(BeEmpty())
	})
})

var _ = Describe("StatsService", func() {
	var (
		db    *gorm.DB
		svc   *StatsService
		asset *maintdb.Asset
	)

	BeforeEach(func() {
		db = newTestDB()
		svc = NewStatsService(db, zap.NewNop())
		asset = seedTestAsset(db, "AC-2204-001")
	})

	Describe("SetProgress", func() {
		It("reports action completion and calculated hours", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			first := seedTestAction(db, set.ID, 1, "remove panels", maintdb.ActionStatusComplete)
			second := seedTestAction(db, set.ID, 2, "inspect cables", maintdb.ActionStatusComplete)
			seedTestAction(db, set.ID, 3, "replace filter", maintdb.ActionStatusInProgress)
			seedTestAction(db, set.ID, 4, "ops check", maintdb.ActionStatusNotStarted)
			Expect(db.Model(first).Update("billable_hours", 2.0).Error).To(Succeed())
			Expect(db.Model(second).Update("billable_hours", 3.5).Error).To(Succeed())

			progress, err := svc.SetProgress(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(progress.TotalActions).To(Equal(4))
			Expect(progress.CompletedActions).To(Equal(2))
			Expect(progress.CompletionPct).To(Equal(50.0))
			Expect(progress.CalculatedHours).To(Equal(5.5))
			Expect(progress.HoursWarning).To(BeEmpty())
		})

		It("surfaces the under-reported hours warning", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			action := seedTestAction(db, set.ID, 1, "inspect cables", maintdb.ActionStatusComplete)
			Expect(db.Model(action).Update("billable_hours", 5.5).Error).To(Succeed())
			Expect(db.Model(set).Update("actual_billable_hours", 1.0).Error).To(Succeed())

			progress, err := svc.SetProgress(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(progress.HoursWarning).To(Equal(
				"Actual billable hours (1.00) is less than calculated sum (5.50)"))
		})

		It("handles a set without actions", func() {
			set := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)

			progress, err := svc.SetProgress(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(progress.TotalActions).To(Equal(0))
			Expect(progress.CompletionPct).To(Equal(0.0))
		})

		It("fails for an unknown set", func() {
			_, err := svc.SetProgress(9999)
			Expect(IsNotFound(err)).To(BeTrue())
		})
	})
})
