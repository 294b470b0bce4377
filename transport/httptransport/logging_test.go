package httptransport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dogmatiq/rpcpost"
	"github.com/dogmatiq/rpcpost/internal/fixtures"
	. "github.com/dogmatiq/rpcpost/transport/httptransport"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("type Transport (logging)", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		server    *fixtures.Server
		logs      *observer.ObservedLogs
		transport *Transport
		request   rpcpost.Request
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)
		server = fixtures.NewServer()

		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)

		b, err := NewBuilder().URL(server.URL)
		Expect(err).ShouldNot(HaveOccurred())

		transport = b.
			Auth("alice", "secret").
			Logger(zap.New(core)).
			Build()

		request = rpcpost.Request{
			Version:    "2.0",
			ID:         json.RawMessage(`1`),
			Method:     "getblockcount",
			Parameters: json.RawMessage(`[]`),
		}
	})

	AfterEach(func() {
		server.Close()
		cancel()
	})

	It("logs successful requests at the debug level", func() {
		_, err := transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())

		entries := logs.FilterMessage("call getblockcount").All()
		Expect(entries).To(HaveLen(1))

		e := entries[0]
		Expect(e.Level).To(Equal(zapcore.DebugLevel))

		fields := e.ContextMap()
		Expect(fields).To(HaveKeyWithValue("target", transport.Target()))
		Expect(fields).To(HaveKeyWithValue("request_count", int64(1)))
		Expect(fields).To(HaveKeyWithValue("status_code", int64(http.StatusOK)))
		Expect(fields).To(HaveKey("payload_size"))
		Expect(fields).To(HaveKey("response_size"))
		Expect(fields).To(HaveKey("duration"))
		Expect(fields).NotTo(HaveKey("error"))
	})

	It("logs batches", func() {
		_, err := transport.SendBatch(ctx, []rpcpost.Request{request, request, request})
		Expect(err).ShouldNot(HaveOccurred())

		entries := logs.FilterMessage("batch of 3").All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("request_count", int64(3)))
	})

	It("quotes method names that are not alpha-numeric", func() {
		request.Method = "wallet/list"

		_, err := transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(logs.FilterMessage(`call "wallet/list"`).Len()).To(Equal(1))
	})

	It("logs failed requests at the warn level", func() {
		server.SetHandler(fixtures.RawHandler(http.StatusForbidden, "forbidden"))

		_, err := transport.SendRequest(ctx, request)
		Expect(err).Should(HaveOccurred())

		entries := logs.FilterMessage("call getblockcount").All()
		Expect(entries).To(HaveLen(1))

		e := entries[0]
		Expect(e.Level).To(Equal(zapcore.WarnLevel))
		Expect(e.ContextMap()).To(HaveKeyWithValue("error", err.Error()))
		Expect(e.ContextMap()).To(HaveKeyWithValue("status_code", int64(http.StatusForbidden)))
	})

	It("omits the status code if no response was received", func() {
		server.Close()

		_, err := transport.SendRequest(ctx, request)
		Expect(err).Should(HaveOccurred())

		e := logs.FilterMessage("call getblockcount").All()[0]
		Expect(e.ContextMap()).NotTo(HaveKey("status_code"))
		Expect(e.ContextMap()).NotTo(HaveKey("response_size"))
	})

	It("never logs credentials", func() {
		_, err := transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())

		for _, e := range logs.All() {
			for _, v := range e.ContextMap() {
				if s, ok := v.(string); ok {
					Expect(s).NotTo(ContainSubstring("YWxpY2U6c2VjcmV0"))
					Expect(s).NotTo(ContainSubstring("secret"))
				}
			}
		}
	})

	It("does not log anything if the level is disabled", func() {
		core, logs := observer.New(zapcore.ErrorLevel)

		b, err := NewBuilder().URL(server.URL)
		Expect(err).ShouldNot(HaveOccurred())

		transport = b.Logger(zap.New(core)).Build()

		_, err = transport.SendRequest(ctx, request)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(logs.Len()).To(BeZero())
	})
})
