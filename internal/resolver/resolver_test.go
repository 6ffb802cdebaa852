package resolver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
	"github.com/angeloszaimis/api-health-checker/internal/resolver"
	"github.com/angeloszaimis/api-health-checker/internal/settings"
)

func mustParse(yamlDoc string) *settings.Document {
	doc, err := settings.Parse(settings.FormatYAML, []byte(yamlDoc))
	Expect(err).NotTo(HaveOccurred())
	return doc
}

var _ = Describe("Resolve", func() {
	Context("environment section", func() {
		It("returns the environment's list unmodified and in order", func() {
			doc := mustParse(`
dev:
  ApiEndpoints:
    - {name: B, url: http://b}
    - {name: A, url: http://a}
    - {name: B, url: http://b2}
ApiEndpoints:
  - {name: Global, url: http://global}
`)
			res := resolver.Resolve(doc, "dev")
			Expect(res.Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "B", URL: "http://b"},
				{Name: "A", URL: "http://a"},
				{Name: "B", URL: "http://b2"},
			}))
			Expect(res.Environment).To(Equal("dev"))
		})

		It("matches environment names case-insensitively", func() {
			doc := mustParse(`
UAT:
  ApiEndpoints:
    - {name: U, url: http://u}
`)
			Expect(resolver.Resolve(doc, "uat").Endpoints).To(HaveLen(1))
		})
	})

	Context("legacy per-environment key", func() {
		It("is used when the environment section has no endpoints", func() {
			doc := mustParse(`
dev:
  Other: true
ApiEndpointsByEnvironment:
  dev:
    - {name: Legacy, url: http://legacy}
ApiEndpoints:
  - {name: Global, url: http://global}
`)
			Expect(resolver.Resolve(doc, "dev").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "Legacy", URL: "http://legacy"},
			}))
		})

		It("is used when the environment section lists nothing", func() {
			doc := mustParse(`
dev:
  ApiEndpoints: []
ApiEndpointsByEnvironment:
  dev:
    - {name: Legacy, url: http://legacy}
`)
			Expect(resolver.Resolve(doc, "dev").Endpoints).To(HaveLen(1))
		})

		It("accepts the flattened dotted key", func() {
			doc, err := settings.Parse(settings.FormatJSON, []byte(`{
  "ApiEndpointsByEnvironment.dev": [ { "name": "Flat", "url": "http://flat" } ]
}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resolver.Resolve(doc, "dev").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "Flat", URL: "http://flat"},
			}))
		})
	})

	Context("top-level list", func() {
		var doc *settings.Document

		BeforeEach(func() {
			doc = mustParse(`
ApiEndpoints:
  - {name: Global, url: http://global}
`)
		})

		It("is used without an environment", func() {
			Expect(resolver.Resolve(doc, "").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "Global", URL: "http://global"},
			}))
		})

		It("is used for an unknown environment", func() {
			Expect(resolver.Resolve(doc, "missing-env").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "Global", URL: "http://global"},
			}))
		})
	})

	Context("first section with endpoints", func() {
		It("scans sections in document order", func() {
			doc := mustParse(`
empty:
  ApiEndpoints: []
zeta:
  ApiEndpoints:
    - {name: Z, url: http://z}
alpha:
  ApiEndpoints:
    - {name: A, url: http://a}
`)
			Expect(resolver.Resolve(doc, "missing").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "Z", URL: "http://z"},
			}))
			Expect(resolver.Resolve(doc, "").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "Z", URL: "http://z"},
			}))
		})
	})

	Context("nothing configured", func() {
		It("returns an empty list for an empty document", func() {
			res := resolver.Resolve(settings.Empty(), "dev")
			Expect(res.Endpoints).NotTo(BeNil())
			Expect(res.Endpoints).To(BeEmpty())
		})

		It("returns an empty list when sections lack endpoints", func() {
			doc := mustParse(`
dev:
  Timeout: 5
Environment: dev
`)
			Expect(resolver.Resolve(doc, "dev").Endpoints).To(BeEmpty())
			Expect(resolver.Resolve(doc, "").Endpoints).To(BeEmpty())
		})
	})

	Context("malformed entries", func() {
		It("passes entries without a URL through unchanged", func() {
			doc := mustParse(`
dev:
  ApiEndpoints:
    - {name: NoURL}
    - {name: A, url: http://a}
`)
			Expect(resolver.Resolve(doc, "dev").Endpoints).To(Equal([]endpoint.Endpoint{
				{Name: "NoURL"},
				{Name: "A", URL: "http://a"},
			}))
		})
	})

	Context("effective environment", func() {
		var doc *settings.Document

		BeforeEach(func() {
			doc = mustParse(`
Environment: dev
dev:
  ApiEndpoints:
    - {name: A, url: http://a}
UAT:
  ApiEndpoints:
    - {name: U, url: http://u}
`)
		})

		It("reports the document's Environment when none was requested", func() {
			Expect(resolver.Resolve(doc, "").Environment).To(Equal("dev"))
		})

		It("does not let the document's Environment pick the endpoints", func() {
			doc = mustParse(`
Environment: UAT
ApiEndpoints:
  - {name: Global, url: http://global}
UAT:
  ApiEndpoints:
    - {name: U, url: http://u}
`)
			res := resolver.Resolve(doc, "")
			Expect(res.Environment).To(Equal("UAT"))
			Expect(res.Endpoints).To(Equal([]endpoint.Endpoint{{Name: "Global", URL: "http://global"}}))
		})

		It("keeps the requested environment", func() {
			Expect(resolver.Resolve(doc, "UAT").Environment).To(Equal("UAT"))
		})
	})

	It("resolves the single-endpoint scenario", func() {
		doc := mustParse(`
dev:
  ApiEndpoints:
    - {name: A, url: "http://a"}
Environment: dev
`)
		Expect(resolver.Resolve(doc, "dev")).To(Equal(resolver.Resolution{
			Environment: "dev",
			Endpoints:   []endpoint.Endpoint{{Name: "A", URL: "http://a"}},
		}))
	})

	It("panics on a nil document", func() {
		Expect(func() { resolver.Resolve(nil, "dev") }).To(Panic())
	})
})

var _ = Describe("Environments", func() {
	It("prefers the Environments list", func() {
		doc := mustParse(`
Environments: [prod, dev]
dev:
  ApiEndpoints:
    - {name: A, url: http://a}
`)
		Expect(resolver.Environments(doc)).To(Equal([]string{"prod", "dev"}))
	})

	It("discovers sections with endpoints in document order", func() {
		doc := mustParse(`
UAT:
  ApiEndpoints:
    - {name: U, url: http://u}
logging:
  level: info
dev:
  ApiEndpoints:
    - {name: A, url: http://a}
`)
		Expect(resolver.Environments(doc)).To(Equal([]string{"UAT", "dev"}))
	})

	It("falls back to the built-in list", func() {
		Expect(resolver.Environments(settings.Empty())).To(Equal([]string{"dev", "UAT"}))
	})
})

var _ = Describe("DefaultEnvironment", func() {
	It("uses the document's Environment matched case-insensitively", func() {
		doc := mustParse(`Environment: uat`)
		Expect(resolver.DefaultEnvironment(doc, []string{"dev", "UAT"})).To(Equal("UAT"))
	})

	It("falls back to the first environment", func() {
		Expect(resolver.DefaultEnvironment(settings.Empty(), []string{"qa", "prod"})).To(Equal("qa"))
	})

	It("keeps an Environment that is not in the list", func() {
		doc := mustParse(`Environment: staging`)
		Expect(resolver.DefaultEnvironment(doc, []string{"dev"})).To(Equal("staging"))
	})

	It("returns empty when nothing is known", func() {
		Expect(resolver.DefaultEnvironment(settings.Empty(), nil)).To(BeEmpty())
	})
})
