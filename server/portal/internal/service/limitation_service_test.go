package service

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

var _ = Describe("LimitationService", func() {
	var (
		db    *gorm.DB
		svc   *LimitationService
		asset *maintdb.Asset
		set   *maintdb.MaintenanceActionSet
		chief Actor
	)

	capabilityOf := func(assetID int64) *string {
		var a maintdb.Asset
		Expect(db.First(&a, assetID).Error).To(Succeed())
		return a.CapabilityStatus
	}

	BeforeEach(func() {
		db = newTestDB()
		svc = NewLimitationService(db, zap.NewNop())
		asset = seedTestAsset(db, "AC-2204-001")
		set = seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
		user := seedTestUser(db, "chief", true)
		chief = UserActor(user.ID, user.Username)
	})

	Describe("CreateRecord", func() {
		It("rejects an unknown capability status", func() {
			_, err := svc.CreateRecord(chief, LimitationCreateDTO{SetID: set.ID, Status: "Broken"})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("requires modifications for compensation statuses", func() {
			_, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityFMCCompensation),
			})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("forbids modifications on degraded statuses", func() {
			_, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:                  set.ID,
				Status:                 string(maintdb.CapabilityNonMissionCapable),
				TemporaryModifications: "extra ballast",
			})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("writes the capability status back to the asset", func() {
			record, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:                 set.ID,
				Status:                string(maintdb.CapabilityPMCFunctional),
				LimitationDescription: "autopilot inoperative",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsActive()).To(BeTrue())

			status := capabilityOf(asset.ID)
			Expect(status).NotTo(BeNil())
			Expect(*status).To(Equal(string(maintdb.CapabilityPMCFunctional)))
		})

		It("allows only one active limitation per action set", func() {
			_, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityPMCFunctional),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityNonMissionCapable),
			})
			Expect(IsInvalidState(err)).To(BeTrue())
		})

		It("keeps the worst status across action sets of the same asset", func() {
			other := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)

			_, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:                  set.ID,
				Status:                 string(maintdb.CapabilityFMCCompensation),
				TemporaryModifications: "manual fuel transfer procedure",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  other.ID,
				Status: string(maintdb.CapabilityNonMissionCapable),
			})
			Expect(err).NotTo(HaveOccurred())

			status := capabilityOf(asset.ID)
			Expect(status).NotTo(BeNil())
			Expect(*status).To(Equal(string(maintdb.CapabilityNonMissionCapable)))
		})
	})

	Describe("UpdateRecord", func() {
		It("rejects a record from another action set", func() {
			record, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityPMCFunctional),
			})
			Expect(err).NotTo(HaveOccurred())

			other := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			_, err = svc.UpdateRecord(record.ID, other.ID, chief, LimitationUpdateDTO{})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("re-validates the resulting status and modification pair", func() {
			record, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:                  set.ID,
				Status:                 string(maintdb.CapabilityPMCCompensation),
				TemporaryModifications: "reduced load limit",
			})
			Expect(err).NotTo(HaveOccurred())

			// 改为降级状态但保留补偿措施，组合非法
			degraded := string(maintdb.CapabilityPMCFunctional)
			_, err = svc.UpdateRecord(record.ID, set.ID, chief, LimitationUpdateDTO{Status: &degraded})
			Expect(IsValidationError(err)).To(BeTrue())

			// 同时清空补偿措施则合法，且资产状态跟随变更
			empty := ""
			_, err = svc.UpdateRecord(record.ID, set.ID, chief, LimitationUpdateDTO{
				Status:                 &degraded,
				TemporaryModifications: &empty,
			})
			Expect(err).NotTo(HaveOccurred())

			status := capabilityOf(asset.ID)
			Expect(status).NotTo(BeNil())
			Expect(*status).To(Equal(degraded))
		})
	})

	Describe("CloseRecord", func() {
		It("clears the asset status when the last limitation closes", func() {
			record, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityNonMissionCapable),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(capabilityOf(asset.ID)).NotTo(BeNil())

			closed, err := svc.CloseRecord(record.ID, set.ID, chief, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(closed.EndTime).NotTo(BeNil())
			Expect(capabilityOf(asset.ID)).To(BeNil())
		})

		It("recomputes to the next-worst remaining limitation", func() {
			other := seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
			worst, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityNonMissionCapable),
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:                  other.ID,
				Status:                 string(maintdb.CapabilityFMCCompensation),
				TemporaryModifications: "manual procedure",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CloseRecord(worst.ID, set.ID, chief, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			status := capabilityOf(asset.ID)
			Expect(status).NotTo(BeNil())
			Expect(*status).To(Equal(string(maintdb.CapabilityFMCCompensation)))
		})

		It("refuses to close twice", func() {
			record, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityPMCFunctional),
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CloseRecord(record.ID, set.ID, chief, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CloseRecord(record.ID, set.ID, chief, nil, nil)
			Expect(IsInvalidState(err)).To(BeTrue())
		})

		It("rejects a start time after the end time", func() {
			record, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityPMCFunctional),
			})
			Expect(err).NotTo(HaveOccurred())

			end := maintdb.FleetTime(time.Now().Add(-2 * time.Hour))
			start := maintdb.FleetTime(time.Now().Add(-1 * time.Hour))
			_, err = svc.CloseRecord(record.ID, set.ID, chief, &end, &start)
			Expect(IsValidationError(err)).To(BeTrue())
		})
	})

	Describe("AssetLimitations", func() {
		It("lists records across all action sets of the asset", func() {
			other := seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
			_, err := svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  set.ID,
				Status: string(maintdb.CapabilityPMCFunctional),
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.CreateRecord(chief, LimitationCreateDTO{
				SetID:  other.ID,
				Status: string(maintdb.CapabilityNonMissionCapable),
			})
			Expect(err).NotTo(HaveOccurred())

			records, err := svc.AssetLimitations(asset.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})
	})

	Describe("RefreshCapabilityStatus", func() {
		It("repairs a stale asset status", func() {
			stale := "Non Mission Capable"
			Expect(db.Model(asset).Update("capability_status", stale).Error).To(Succeed())

			Expect(svc.RefreshCapabilityStatus(asset.ID)).To(Succeed())
			Expect(capabilityOf(asset.ID)).To(BeNil())
		})
	})
})
