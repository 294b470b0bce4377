package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dogmatiq/rpcpost"
	"github.com/dogmatiq/rpcpost/internal/fixtures"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("type Metrics", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		server    *fixtures.Server
		metrics   *Metrics
		transport *Transport
		request   rpcpost.Request
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)
		server = fixtures.NewServer()
		metrics = NewMetrics("")

		b, err := NewBuilder().URL(server.URL)
		Expect(err).ShouldNot(HaveOccurred())

		transport = b.Metrics(metrics).Build()

		request = rpcpost.Request{
			Version: "2.0",
			ID:      json.RawMessage(`1`),
			Method:  "echo",
		}
	})

	AfterEach(func() {
		server.Close()
		cancel()
	})

	It("counts exchanges by shape and outcome", func() {
		_, err := transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())

		_, err = transport.SendBatch(ctx, []rpcpost.Request{request, request})
		Expect(err).ShouldNot(HaveOccurred())

		server.SetHandler(fixtures.RawHandler(http.StatusOK, `{not json`))
		_, err = transport.SendRequest(ctx, request)
		Expect(err).Should(HaveOccurred())

		Expect(testutil.ToFloat64(metrics.exchanges.WithLabelValues(shapeSingle, outcomeSuccess))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.exchanges.WithLabelValues(shapeBatch, outcomeSuccess))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.exchanges.WithLabelValues(shapeSingle, outcomeDeserialization))).To(Equal(1.0))
	})

	It("records the duration of each exchange", func() {
		_, err := transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(testutil.CollectAndCount(metrics.duration)).To(Equal(1))
	})

	It("can be registered with a Prometheus registry", func() {
		reg := prometheus.NewPedanticRegistry()
		Expect(reg.Register(metrics)).To(Succeed())

		_, err := transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())

		n, err := testutil.GatherAndCount(
			reg,
			"rpcpost_http_exchanges_total",
			"rpcpost_http_exchange_duration_seconds",
		)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("uses the given namespace", func() {
		metrics = NewMetrics("bitcoind")
		reg := prometheus.NewRegistry()
		Expect(reg.Register(metrics)).To(Succeed())

		metrics.observe(exchange{Shape: shapeRaw}, nil, time.Millisecond)

		n, err := testutil.GatherAndCount(reg, "bitcoind_http_exchanges_total")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("does nothing when the collector is nil", func() {
		var m *Metrics
		Expect(func() {
			m.observe(exchange{Shape: shapeSingle}, nil, time.Millisecond)
		}).NotTo(Panic())
	})

	DescribeTable(
		"func outcomeOf()",
		func(err error, expect string) {
			Expect(outcomeOf(err)).To(Equal(expect))
		},
		Entry("success", nil, outcomeSuccess),
		Entry("serialization", &rpcpost.TransportError{Kind: rpcpost.KindSerialization}, outcomeSerialization),
		Entry("deserialization", &rpcpost.TransportError{Kind: rpcpost.KindDeserialization}, outcomeDeserialization),
		Entry("transport", &rpcpost.TransportError{Kind: rpcpost.KindTransport}, outcomeTransport),
		Entry("timeout", &rpcpost.TransportError{Kind: rpcpost.KindTransport, IsTimeout: true}, outcomeTimeout),
		Entry("other error", errors.New("<error>"), outcomeTransport),
	)
})
