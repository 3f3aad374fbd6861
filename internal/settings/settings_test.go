package settings_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/shareddb/internal/config"
	"github.com/kubev2v/shareddb/internal/settings"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

var _ = Describe("Patch", func() {
	var orig map[string]config.Database

	BeforeEach(func() {
		orig = map[string]config.Database{
			"default": {Engine: "duckdb", DSN: ":memory:"},
			"cache":   {Engine: "sqlite3", DSN: "cache.db"},
			"other":   {Engine: "duckdb", DSN: "other.db"},
		}
	})

	// Given no whitelist and no blacklist
	// When we patch the databases
	// Then every alias should use the shareddb engine wrapping its original engine
	It("should patch every alias by default", func() {
		patched := settings.Patch(orig, nil, nil)

		for alias, db := range patched {
			Expect(db.Engine).To(Equal(settings.EngineSharedDB), alias)
			Expect(db.InnerEngine).To(Equal(orig[alias].Engine), alias)
			Expect(db.DSN).To(Equal(orig[alias].DSN), alias)
		}
	})

	It("should only patch whitelisted aliases", func() {
		patched := settings.Patch(orig, []string{"default"}, nil)

		Expect(patched["default"].Engine).To(Equal(settings.EngineSharedDB))
		Expect(patched["cache"]).To(Equal(orig["cache"]))
		Expect(patched["other"]).To(Equal(orig["other"]))
	})

	It("should never patch blacklisted aliases", func() {
		patched := settings.Patch(orig, []string{"default", "cache"}, []string{"cache"})

		Expect(patched["default"].Engine).To(Equal(settings.EngineSharedDB))
		Expect(patched["cache"]).To(Equal(orig["cache"]))
		Expect(patched["other"]).To(Equal(orig["other"]))
	})

	It("should not modify the input", func() {
		_ = settings.Patch(orig, nil, nil)

		Expect(orig["default"].Engine).To(Equal("duckdb"))
		Expect(orig["default"].InnerEngine).To(BeEmpty())
	})

	It("should not wrap an already patched alias twice", func() {
		once := settings.Patch(orig, nil, nil)

		twice := settings.Patch(once, nil, nil)

		Expect(twice).To(Equal(once))
	})
})

var _ = Describe("Resolve", func() {
	It("should open the inner engine for delegated aliases", func() {
		driver, delegated, err := settings.Resolve("default", config.Database{Engine: "shareddb", InnerEngine: "duckdb"})

		Expect(err).NotTo(HaveOccurred())
		Expect(driver).To(Equal("duckdb"))
		Expect(delegated).To(BeTrue())
	})

	It("should pass other engines through", func() {
		driver, delegated, err := settings.Resolve("cache", config.Database{Engine: "sqlite3"})

		Expect(err).NotTo(HaveOccurred())
		Expect(driver).To(Equal("sqlite3"))
		Expect(delegated).To(BeFalse())
	})

	It("should require an inner engine", func() {
		_, _, err := settings.Resolve("default", config.Database{Engine: "shareddb"})

		Expect(srvErrors.IsImproperlyConfiguredError(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("without an inner engine")))
	})

	It("should reject nested shareddb engines", func() {
		_, _, err := settings.Resolve("default", config.Database{Engine: "shareddb", InnerEngine: "shareddb"})

		Expect(srvErrors.IsImproperlyConfiguredError(err)).To(BeTrue())
	})

	It("should reject unknown engines", func() {
		_, _, err := settings.Resolve("default", config.Database{Engine: "postgres"})

		Expect(err).To(MatchError(ContainSubstring(`unknown engine "postgres"`)))
	})
})
