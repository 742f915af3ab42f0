package service

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

var _ = Describe("CommentService", func() {
	var (
		db    *gorm.DB
		svc   *CommentService
		set   *maintdb.MaintenanceActionSet
		lopez Actor
	)

	BeforeEach(func() {
		db = newTestDB()
		svc = NewCommentService(db, zap.NewNop())
		asset := seedTestAsset(db, "AC-2204-001")
		set = seedTestSet(db, asset.ID, maintdb.ActionSetStatusInProgress)
		user := seedTestUser(db, "lopez", true)
		lopez = UserActor(user.ID, user.Username)
	})

	Describe("AddComment", func() {
		It("trims content and stores the author", func() {
			comment, err := svc.AddComment(set.ID, lopez, "  torque checked  ", true, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(comment.Content).To(Equal("torque checked"))
			Expect(comment.CreatedByID).To(Equal(lopez.UserID))
			Expect(comment.IsHumanMade).To(BeTrue())
			Expect(comment.IsVisible()).To(BeTrue())
		})

		It("rejects blank content", func() {
			_, err := svc.AddComment(set.ID, lopez, "   ", true, nil)
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("rejects replies across maintenance action sets", func() {
			other := seedTestSet(db, set.AssetID, maintdb.ActionSetStatusPlanned)
			parent, err := svc.AddComment(other.ID, lopez, "elsewhere", true, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.AddComment(set.ID, lopez, "reply", true, &parent.ID)
			Expect(IsValidationError(err)).To(BeTrue())
		})

		It("rejects replies to deleted comments", func() {
			parent, err := svc.AddComment(set.ID, lopez, "to be removed", true, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.DeleteComment(parent.ID, lopez)).To(Succeed())

			_, err = svc.AddComment(set.ID, lopez, "reply", true, &parent.ID)
			Expect(IsValidationError(err)).To(BeTrue())
		})
	})

	Describe("EditComment", func() {
		It("supersedes the old row and links the new one", func() {
			old, err := svc.AddComment(set.ID, lopez, "first draft", true, nil)
			Expect(err).NotTo(HaveOccurred())

			edited, err := svc.EditComment(old.ID, lopez, "final wording")
			Expect(err).NotTo(HaveOccurred())
			Expect(edited.Content).To(Equal("final wording"))
			Expect(edited.PreviousCommentID).NotTo(BeNil())
			Expect(*edited.PreviousCommentID).To(Equal(old.ID))

			var superseded maintdb.Comment
			Expect(db.First(&superseded, old.ID).Error).To(Succeed())
			Expect(superseded.UserViewable).NotTo(BeNil())
			Expect(*superseded.UserViewable).To(Equal(maintdb.CommentHiddenEdit))

			Expect(visibleContents(db, set.ID)).To(Equal([]string{"final wording"}))
		})

		It("only allows the author to edit", func() {
			other := seedTestUser(db, "nguyen", true)
			old, err := svc.AddComment(set.ID, lopez, "mine", true, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.EditComment(old.ID, UserActor(other.ID, other.Username), "theirs")
			Expect(IsPermissionDenied(err)).To(BeTrue())
		})

		It("refuses to edit a superseded comment", func() {
			old, err := svc.AddComment(set.ID, lopez, "v1", true, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.EditComment(old.ID, lopez, "v2")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.EditComment(old.ID, lopez, "v3")
			Expect(IsInvalidState(err)).To(BeTrue())
		})

		It("moves attachments to the new version", func() {
			old, err := svc.AddComment(set.ID, lopez, "with photo", true, nil)
			Expect(err).NotTo(HaveOccurred())
			att := &maintdb.CommentAttachment{CommentID: old.ID, AttachmentID: 99}
			Expect(db.Create(att).Error).To(Succeed())

			edited, err := svc.EditComment(old.ID, lopez, "with photo, fixed typo")
			Expect(err).NotTo(HaveOccurred())

			var moved maintdb.CommentAttachment
			Expect(db.First(&moved, att.ID).Error).To(Succeed())
			Expect(moved.CommentID).To(Equal(edited.ID))
		})
	})

	Describe("DeleteComment", func() {
		It("soft-deletes and refuses a second delete", func() {
			comment, err := svc.AddComment(set.ID, lopez, "obsolete", true, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.DeleteComment(comment.ID, lopez)).To(Succeed())
			var deleted maintdb.Comment
			Expect(db.First(&deleted, comment.ID).Error).To(Succeed())
			Expect(deleted.IsDeleted()).To(BeTrue())

			err = svc.DeleteComment(comment.ID, lopez)
			Expect(IsInvalidState(err)).To(BeTrue())
		})

		It("only allows the author to delete", func() {
			other := seedTestUser(db, "nguyen", true)
			comment, err := svc.AddComment(set.ID, lopez, "mine", true, nil)
			Expect(err).NotTo(HaveOccurred())

			err = svc.DeleteComment(comment.ID, UserActor(other.ID, other.Username))
			Expect(IsPermissionDenied(err)).To(BeTrue())
		})
	})

	Describe("queries", func() {
		It("filters human comments and skips hidden rows", func() {
			_, err := svc.AddComment(set.ID, lopez, "human note", true, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.AddComment(set.ID, SystemActor(), "machine narration", false, nil)
			Expect(err).NotTo(HaveOccurred())

			all, err := svc.VisibleComments(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			human, err := svc.HumanComments(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(human).To(HaveLen(1))
			Expect(human[0].Content).To(Equal("human note"))
		})

		It("returns nil for LastComment on an empty ledger", func() {
			last, err := svc.LastComment(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(BeNil())
		})

		It("returns the newest visible comment", func() {
			_, err := svc.AddComment(set.ID, lopez, "older", true, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.AddComment(set.ID, lopez, "newer", true, nil)
			Expect(err).NotTo(HaveOccurred())

			last, err := svc.LastComment(set.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(last.Content).To(Equal("newer"))
		})
	})

	Describe("EditHistory", func() {
		It("returns the full chain oldest-first from any member", func() {
			v1, err := svc.AddComment(set.ID, lopez, "v1", true, nil)
			Expect(err).NotTo(HaveOccurred())
			v2, err := svc.EditComment(v1.ID, lopez, "v2")
			Expect(err).NotTo(HaveOccurred())
			v3, err := svc.EditComment(v2.ID, lopez, "v3")
			Expect(err).NotTo(HaveOccurred())

			for _, id := range []int64{v1.ID, v2.ID, v3.ID} {
				history, err := svc.EditHistory(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(history).To(HaveLen(3))
				Expect(history[0].Content).To(Equal("v1"))
				Expect(history[1].Content).To(Equal("v2"))
				Expect(history[2].Content).To(Equal("v3"))
			}
		})

		It("returns a single entry for an unedited comment", func() {
			only, err := svc.AddComment(set.ID, lopez, "never edited", true, nil)
			Expect(err).NotTo(HaveOccurred())

			history, err := svc.EditHistory(only.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].ID).To(Equal(only.ID))
		})
	})
})
