package fund_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/giving-api/internal"
	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
	"github.com/frahmantamala/giving-api/internal/fund"
)

func TestFund(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fund Suite")
}

type mockFundRepo struct {
	funds     []*funddm.Fund
	saveCount int
}

func (m *mockFundRepo) Save(f *funddm.Fund) error {
	m.saveCount++
	if f.ID == "" {
		f.ID = fmt.Sprintf("fund-%d", m.saveCount)
		m.funds = append(m.funds, f)
		return nil
	}
	for i, existing := range m.funds {
		if existing.ID == f.ID && existing.ChurchID == f.ChurchID {
			m.funds[i] = f
			return nil
		}
	}
	m.funds = append(m.funds, f)
	return nil
}

func (m *mockFundRepo) Load(churchID, id string) (*funddm.Fund, error) {
	for _, f := range m.funds {
		if f.ChurchID == churchID && f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockFundRepo) LoadByName(churchID, name string) (*funddm.Fund, error) {
	for _, f := range m.funds {
		if f.ChurchID == churchID && f.Name == name && !f.Removed {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockFundRepo) LoadAll(churchID string) ([]*funddm.Fund, error) {
	var result []*funddm.Fund
	for _, f := range m.funds {
		if f.ChurchID == churchID && !f.Removed {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *mockFundRepo) MarkRemoved(churchID, id string) error {
	for _, f := range m.funds {
		if f.ChurchID == churchID && f.ID == id {
			f.Removed = true
		}
	}
	return nil
}

var _ = Describe("Fund Service", func() {
	var (
		service *fund.Service
		repo    *mockFundRepo
		ctx     context.Context
	)

	churchID := "church-1"

	BeforeEach(func() {
		repo = &mockFundRepo{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = fund.NewService(repo, logger)
		ctx = context.Background()
	})

	Describe("GetOrCreateGeneral", func() {
		It("should create the General Fund on first use", func() {
			general, err := service.GetOrCreateGeneral(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(general.Name).To(Equal(funddm.GeneralFundName))
			Expect(general.TaxDeductible).To(BeTrue())
			Expect(repo.saveCount).To(Equal(1))
		})

		It("should return the existing fund on later calls", func() {
			first, err := service.GetOrCreateGeneral(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())

			second, err := service.GetOrCreateGeneral(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(repo.saveCount).To(Equal(1))
		})

		It("should create per tenant", func() {
			a, err := service.GetOrCreateGeneral(ctx, "church-a")
			Expect(err).ToNot(HaveOccurred())

			b, err := service.GetOrCreateGeneral(ctx, "church-b")

			Expect(err).ToNot(HaveOccurred())
			Expect(b.ID).ToNot(Equal(a.ID))
		})

		It("should recreate after the General Fund was removed", func() {
			first, err := service.GetOrCreateGeneral(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Delete(ctx, churchID, first.ID)).To(Succeed())

			second, err := service.GetOrCreateGeneral(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(second.ID).ToNot(Equal(first.ID))
		})
	})

	Describe("Save", func() {
		It("should reject a fund without a name", func() {
			_, err := service.Save(ctx, churchID, fund.SaveFundDTO{})

			Expect(err).To(HaveOccurred())
			Expect(repo.saveCount).To(BeZero())
		})

		It("should create a fund", func() {
			created, err := service.Save(ctx, churchID, fund.SaveFundDTO{Name: "Missions", TaxDeductible: true})

			Expect(err).ToNot(HaveOccurred())
			Expect(created.ID).ToNot(BeEmpty())
			Expect(created.ChurchID).To(Equal(churchID))
		})
	})

	Describe("Delete", func() {
		It("should soft-remove so the fund disappears from listings", func() {
			created, err := service.Save(ctx, churchID, fund.SaveFundDTO{Name: "Missions"})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Delete(ctx, churchID, created.ID)).To(Succeed())

			visible, err := service.LoadAll(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(visible).To(BeEmpty())

			// historical allocations still resolve the row
			loaded, err := service.Load(ctx, churchID, created.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(loaded.Removed).To(BeTrue())
		})

		It("should fail for an unknown fund", func() {
			err := service.Delete(ctx, churchID, "missing")

			Expect(err).To(Equal(apperrors.ErrFundNotFound))
		})
	})
})
