package service

import (
	"fmt"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

// sequenceNames 工作包步骤名称，按序号排序
func sequenceNames(db *gorm.DB, setID int64) []string {
	var actions []maintdb.Action
	Expect(db.Where("maintenance_action_set_id = ?", setID).
		Order("sequence_order ASC").
		Find(&actions).Error).To(Succeed())
	names := make([]string, 0, len(actions))
	for i, a := range actions {
		// 序号必须始终保持稠密的 1..N
		Expect(a.SequenceOrder).To(Equal(i + 1))
		names = append(names, a.ActionName)
	}
	return names
}

var _ = Describe("ActionService sequencing", func() {
	var (
		db    *gorm.DB
		svc   *ActionService
		set   *maintdb.MaintenanceActionSet
		lopez Actor
	)

	BeforeEach(func() {
		db = newTestDB()
		svc = NewActionService(db, zap.NewNop())
		asset := seedTestAsset(db, "AC-2204-001")
		set = seedTestSet(db, asset.ID, maintdb.ActionSetStatusPlanned)
		user := seedTestUser(db, "lopez", true)
		lopez = UserActor(user.ID, user.Username)
	})

	Describe("CreateBlankAction", func() {
		It("appends at the end by default", func() {
			for _, name := range []string{"drain", "replace", "refill"} {
				_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{SetID: set.ID, ActionName: name})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"drain", "replace", "refill"}))
		})

		It("shifts everything when inserting at the beginning", func() {
			seedTestAction(db, set.ID, 1, "replace", maintdb.ActionStatusNotStarted)
			seedTestAction(db, set.ID, 2, "refill", maintdb.ActionStatusNotStarted)

			_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{
				SetID:          set.ID,
				ActionName:     "drain",
				InsertPosition: InsertAtBeginning,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"drain", "replace", "refill"}))
		})

		It("inserts after a reference action", func() {
			drain := seedTestAction(db, set.ID, 1, "drain", maintdb.ActionStatusNotStarted)
			seedTestAction(db, set.ID, 2, "refill", maintdb.ActionStatusNotStarted)

			_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{
				SetID:          set.ID,
				ActionName:     "replace",
				InsertPosition: InsertAfter,
				AfterActionID:  &drain.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"drain", "replace", "refill"}))
		})

		It("requires a reference when inserting after", func() {
			_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{
				SetID:          set.ID,
				ActionName:     "replace",
				InsertPosition: InsertAfter,
			})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("rejects an unknown insert position", func() {
			_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{
				SetID:          set.ID,
				ActionName:     "replace",
				InsertPosition: "middle",
			})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("rejects a blank action name", func() {
			_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{SetID: set.ID, ActionName: "  "})
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("narrates creation on the ledger", func() {
			_, err := svc.CreateBlankAction(lopez, ActionCreateDTO{SetID: set.ID, ActionName: "drain"})
			Expect(err).NotTo(HaveOccurred())
			Expect(visibleContents(db, set.ID)).To(ContainElement("Action created: 'drain' by lopez"))
		})
	})

	Describe("DuplicateAction", func() {
		It("places the copy right after the source and resets child demands", func() {
			source := seedTestAction(db, set.ID, 1, "replace", maintdb.ActionStatusComplete)
			seedTestAction(db, set.ID, 2, "refill", maintdb.ActionStatusNotStarted)
			Expect(db.Create(&maintdb.PartDemand{
				ActionID:         source.ID,
				PartID:           7,
				PartName:         "Hydraulic filter",
				QuantityRequired: 2,
				Status:           maintdb.PartDemandStatusIssued,
			}).Error).To(Succeed())
			Expect(db.Create(&maintdb.ActionTool{
				ActionID: source.ID,
				ToolID:   3,
				ToolName: "Torque wrench",
				Status:   maintdb.ActionToolStatusAssigned,
			}).Error).To(Succeed())

			dup, err := svc.DuplicateAction(source.ID, lopez)
			Expect(err).NotTo(HaveOccurred())
			Expect(dup.SequenceOrder).To(Equal(2))
			Expect(dup.Status).To(Equal(maintdb.ActionStatusNotStarted))
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"replace", "replace", "refill"}))

			var demands []maintdb.PartDemand
			Expect(db.Where("action_id = ?", dup.ID).Find(&demands).Error).To(Succeed())
			Expect(demands).To(HaveLen(1))
			Expect(demands[0].Status).To(Equal(maintdb.PartDemandStatusPlanned))

			var tools []maintdb.ActionTool
			Expect(db.Where("action_id = ?", dup.ID).Find(&tools).Error).To(Succeed())
			Expect(tools).To(HaveLen(1))
			Expect(tools[0].Status).To(Equal(maintdb.ActionToolStatusPlanned))
		})
	})

	Describe("DeleteAction", func() {
		It("deletes child requirements and restores dense ordering", func() {
			seedTestAction(db, set.ID, 1, "drain", maintdb.ActionStatusNotStarted)
			replace := seedTestAction(db, set.ID, 2, "replace", maintdb.ActionStatusNotStarted)
			seedTestAction(db, set.ID, 3, "refill", maintdb.ActionStatusNotStarted)
			Expect(db.Create(&maintdb.PartDemand{ActionID: replace.ID, PartID: 7, QuantityRequired: 1}).Error).To(Succeed())

			Expect(svc.DeleteAction(replace.ID, lopez)).To(Succeed())
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"drain", "refill"}))

			var orphaned int64
			Expect(db.Model(&maintdb.PartDemand{}).Where("action_id = ?", replace.ID).Count(&orphaned).Error).To(Succeed())
			Expect(orphaned).To(BeZero())
		})
	})

	Describe("interleaved create, delete and reorder", func() {
		type entry struct {
			id   int64
			name string
		}

		expectedNames := func(model []entry) []string {
			names := make([]string, 0, len(model))
			for _, e := range model {
				names = append(names, e.name)
			}
			return names
		}

		It("keeps the ordering dense under a random operation mix", func() {
			rng := rand.New(rand.NewSource(2204))
			var model []entry

			insertAt := func(pos int, e entry) {
				model = append(model, entry{})
				copy(model[pos+1:], model[pos:])
				model[pos] = e
			}

			for i := 0; i < 60; i++ {
				op := rng.Intn(3)
				switch {
				case len(model) == 0 || op == 0:
					name := fmt.Sprintf("step-%d", i)
					dto := ActionCreateDTO{SetID: set.ID, ActionName: name}
					pos := len(model)
					switch rng.Intn(3) {
					case 0:
						dto.InsertPosition = InsertAtBeginning
						pos = 0
					case 1:
						if len(model) > 0 {
							ref := rng.Intn(len(model))
							dto.InsertPosition = InsertAfter
							dto.AfterActionID = &model[ref].id
							pos = ref + 1
						}
					}
					created, err := svc.CreateBlankAction(lopez, dto)
					Expect(err).NotTo(HaveOccurred())
					insertAt(pos, entry{id: created.ID, name: name})

				case op == 1:
					victim := rng.Intn(len(model))
					Expect(svc.DeleteAction(model[victim].id, lopez)).To(Succeed())
					model = append(model[:victim], model[victim+1:]...)

				default:
					from := rng.Intn(len(model))
					to := rng.Intn(len(model))
					moved := model[from]
					Expect(svc.ReorderAction(moved.id, lopez, to+1)).To(Succeed())
					model = append(model[:from], model[from+1:]...)
					insertAt(to, moved)
				}

				Expect(sequenceNames(db, set.ID)).To(Equal(expectedNames(model)))
			}
		})
	})

	Describe("ReorderAction", func() {
		var last *maintdb.Action

		BeforeEach(func() {
			seedTestAction(db, set.ID, 1, "drain", maintdb.ActionStatusNotStarted)
			seedTestAction(db, set.ID, 2, "replace", maintdb.ActionStatusNotStarted)
			last = seedTestAction(db, set.ID, 3, "refill", maintdb.ActionStatusNotStarted)
		})

		It("moves an action towards the front", func() {
			Expect(svc.ReorderAction(last.ID, lopez, 1)).To(Succeed())
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"refill", "drain", "replace"}))
		})

		It("moves an action towards the back", func() {
			var first maintdb.Action
			Expect(db.Where("maintenance_action_set_id = ? AND sequence_order = 1", set.ID).First(&first).Error).To(Succeed())
			Expect(svc.ReorderAction(first.ID, lopez, 3)).To(Succeed())
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"replace", "refill", "drain"}))
		})

		It("rejects positions outside 1..N", func() {
			Expect(IsValidationError(svc.ReorderAction(last.ID, lopez, 0))).To(BeTrue())
			Expect(IsValidationError(svc.ReorderAction(last.ID, lopez, 4))).To(BeTrue())
		})

		It("is a no-op when the position is unchanged", func() {
			Expect(svc.ReorderAction(last.ID, lopez, 3)).To(Succeed())
			Expect(sequenceNames(db, set.ID)).To(Equal([]string{"drain", "replace", "refill"}))
		})
	})
})
