package service

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

var _ = Describe("PartDemandService", func() {
	var (
		db     *gorm.DB
		svc    *PartDemandService
		set    *maintdb.MaintenanceActionSet
		action *maintdb.Action
		lopez  Actor
	)

	seedDemand := func(status maintdb.PartDemandStatus) *maintdb.PartDemand {
		demand := &maintdb.PartDemand{
			ActionID:         action.ID,
			PartID:           7,
			PartName:         "Hydraulic filter",
			QuantityRequired: 2,
			Status:           status,
			Priority:         maintdb.PriorityMedium,
		}
		Expect(db.Create(demand).Error).To(Succeed())
		return demand
	}

	reloadDemand := func(id int64) *maintdb.PartDemand {
		var demand maintdb.PartDemand
		Expect(db.First(&demand, id).Error).To(Succeed())
		return &demand
	}

	BeforeEach(func() {
		db = newTestDB()
		svc = NewPartDemandService(db, zap.NewNop())
		asset := seedTestAsset(db, "AC-2204-001")
		set = seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
		action = seedTestAction(db, set.ID, 1, "replace filter", maintdb.ActionStatusInProgress)
		user := seedTestUser(db, "lopez", true)
		lopez = UserActor(user.ID, user.Username)
	})

	Describe("CreateForAction", func() {
		It("defaults to pending manager approval", func() {
			demand, err := svc.CreateForAction(lopez, PartDemandCreateDTO{
				ActionID:         action.ID,
				PartID:           7,
				PartName:         "Hydraulic filter",
				QuantityRequired: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(demand.Status).To(Equal(maintdb.PartDemandStatusPendingManager))
			Expect(visibleContents(db, set.ID)).To(ContainElement("Part demand created: Hydraulic filter x2 by lopez"))
		})

		It("accepts an explicit valid initial status", func() {
			demand, err := svc.CreateForAction(lopez, PartDemandCreateDTO{
				ActionID:         action.ID,
				PartID:           7,
				QuantityRequired: 1,
				InitialStatus:    string(maintdb.PartDemandStatusPlanned),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(demand.Status).To(Equal(maintdb.PartDemandStatusPlanned))
		})

		It("rejects non-positive quantity and bogus status", func() {
			_, err := svc.CreateForAction(lopez, PartDemandCreateDTO{ActionID: action.ID, QuantityRequired: 0})
			Expect(IsValidationError(err)).To(BeTrue())

			_, err = svc.CreateForAction(lopez, PartDemandCreateDTO{
				ActionID:         action.ID,
				QuantityRequired: 1,
				InitialStatus:    "Teleported",
			})
			Expect(IsValidationError(err)).To(BeTrue())
		})
	})

	Describe("Issue", func() {
		It("issues a planned demand and narrates it", func() {
			demand := seedDemand(maintdb.PartDemandStatusPlanned)
			Expect(svc.Issue(demand.ID, lopez)).To(Succeed())
			Expect(reloadDemand(demand.ID).Status).To(Equal(maintdb.PartDemandStatusIssued))
			Expect(visibleContents(db, set.ID)).To(ContainElement("Part issued: Hydraulic filter x2 by lopez"))
		})

		It("refuses to issue twice", func() {
			demand := seedDemand(maintdb.PartDemandStatusIssued)
			Expect(IsInvalidTransition(svc.Issue(demand.ID, lopez))).To(BeTrue())
		})
	})

	Describe("CancelByTechnician", func() {
		It("requires a reason", func() {
			demand := seedDemand(maintdb.PartDemandStatusPlanned)
			Expect(IsValidationError(svc.CancelByTechnician(demand.ID, lopez, "  "))).To(BeTrue())
		})

		It("refuses to cancel an issued demand", func() {
			demand := seedDemand(maintdb.PartDemandStatusIssued)
			Expect(IsInvalidTransition(svc.CancelByTechnician(demand.ID, lopez, "wrong part"))).To(BeTrue())
		})

		It("cancels and records the reason on the ledger", func() {
			demand := seedDemand(maintdb.PartDemandStatusPendingManager)
			Expect(svc.CancelByTechnician(demand.ID, lopez, "wrong part number")).To(Succeed())
			Expect(reloadDemand(demand.ID).Status).To(Equal(maintdb.PartDemandStatusCancelledTechnician))
			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Part demand cancelled: Hydraulic filter x2 by lopez. Reason: wrong part number"))
		})
	})

	Describe("UndoToPlanned", func() {
		It("resets a cancelled demand", func() {
			demand := seedDemand(maintdb.PartDemandStatusCancelledSupply)
			Expect(svc.UndoToPlanned(demand.ID, lopez)).To(Succeed())
			Expect(reloadDemand(demand.ID).Status).To(Equal(maintdb.PartDemandStatusPlanned))
		})

		It("only applies to cancelled demands", func() {
			demand := seedDemand(maintdb.PartDemandStatusOrdered)
			Expect(IsInvalidTransition(svc.UndoToPlanned(demand.ID, lopez))).To(BeTrue())
		})
	})

	Describe("Update", func() {
		It("rejects an invalid status", func() {
			demand := seedDemand(maintdb.PartDemandStatusPlanned)
			bogus := "Teleported"
			err := svc.Update(demand.ID, lopez, PartDemandUpdateDTO{Status: &bogus})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("silently ignores an invalid priority", func() {
			demand := seedDemand(maintdb.PartDemandStatusPlanned)
			bogus := "Extreme"
			notes := "count confirmed"
			Expect(svc.Update(demand.ID, lopez, PartDemandUpdateDTO{Priority: &bogus, Notes: &notes})).To(Succeed())

			updated := reloadDemand(demand.ID)
			Expect(updated.Priority).To(Equal(maintdb.PriorityMedium))
			Expect(updated.Notes).To(Equal("count confirmed"))
		})

		It("rejects non-positive quantity", func() {
			demand := seedDemand(maintdb.PartDemandStatusPlanned)
			q := -1.0
			Expect(IsValidationError(svc.Update(demand.ID, lopez, PartDemandUpdateDTO{QuantityRequired: &q}))).To(BeTrue())
		})

		It("narrates the new status", func() {
			demand := seedDemand(maintdb.PartDemandStatusPlanned)
			ordered := string(maintdb.PartDemandStatusOrdered)
			Expect(svc.Update(demand.ID, lopez, PartDemandUpdateDTO{Status: &ordered})).To(Succeed())
			Expect(reloadDemand(demand.ID).Status).To(Equal(maintdb.PartDemandStatusOrdered))
			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Part demand updated: Hydraulic filter x2 by lopez. Status: Ordered"))
		})
	})
})

var _ = Describe("ActionToolService", func() {
	var (
		db     *gorm.DB
		svc    *ActionToolService
		set    *maintdb.MaintenanceActionSet
		action *maintdb.Action
		lopez  Actor
	)

	BeforeEach(func() {
		db = newTestDB()
		svc = NewActionToolService(db, zap.NewNop())
		asset := seedTestAsset(db, "AC-2204-001")
		set = seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
		action = seedTestAction(db, set.ID, 1, "replace filter", maintdb.ActionStatusInProgress)
		user := seedTestUser(db, "lopez", true)
		lopez = UserActor(user.ID, user.Username)
	})

	newTool := func() *maintdb.ActionTool {
		tool, err := svc.CreateForAction(lopez, ActionToolCreateDTO{
			ActionID: action.ID,
			ToolName: "Torque wrench",
		})
		Expect(err).NotTo(HaveOccurred())
		return tool
	}

	reloadTool := func(id int64) *maintdb.ActionTool {
		var tool maintdb.ActionTool
		Expect(db.First(&tool, id).Error).To(Succeed())
		return &tool
	}

	Describe("CreateForAction", func() {
		It("creates a planned requirement with a narrated comment", func() {
			tool := newTool()
			Expect(tool.Status).To(Equal(maintdb.ActionToolStatusPlanned))
			Expect(tool.QuantityRequired).To(Equal(1))
			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Tool requirement created: Torque wrench for action 'replace filter' by lopez"))
		})
	})

	Describe("Assign", func() {
		It("stamps the assignment date and assignee", func() {
			tool := newTool()
			Expect(svc.Assign(tool.ID, lopez, nil)).To(Succeed())

			updated := reloadTool(tool.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionToolStatusAssigned))
			Expect(updated.AssignedDate).NotTo(BeNil())
			Expect(*updated.AssignedToUserID).To(Equal(lopez.UserID))
		})
	})

	Describe("Return", func() {
		It("stamps the return date on an assigned tool", func() {
			tool := newTool()
			Expect(svc.Assign(tool.ID, lopez, nil)).To(Succeed())
			Expect(svc.Return(tool.ID, lopez)).To(Succeed())

			updated := reloadTool(tool.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionToolStatusReturned))
			Expect(updated.ReturnedDate).NotTo(BeNil())
		})

		It("rejects returning a tool that was never assigned", func() {
			tool := newTool()
			Expect(IsInvalidTransition(svc.Return(tool.ID, lopez))).To(BeTrue())
		})
	})

	Describe("MarkMissing", func() {
		It("records the loss with a narrated status comment", func() {
			tool := newTool()
			notes := "not in the crib"
			Expect(svc.MarkMissing(tool.ID, lopez, &notes)).To(Succeed())

			updated := reloadTool(tool.ID)
			Expect(updated.Status).To(Equal(maintdb.ActionToolStatusMissing))
			Expect(updated.Notes).To(Equal("not in the crib"))
			Expect(visibleContents(db, set.ID)).To(ContainElement(
				"Tool requirement updated: Torque wrench for action 'replace filter' by lopez. Status: Missing"))
		})
	})

	Describe("Delete", func() {
		It("refuses to delete an assigned tool", func() {
			tool := newTool()
			Expect(svc.Assign(tool.ID, lopez, nil)).To(Succeed())
			Expect(IsInvalidState(svc.Delete(tool.ID, lopez))).To(BeTrue())
		})
	})
})
