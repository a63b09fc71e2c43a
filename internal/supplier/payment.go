package supplier

import "context"

// StartPayRequest starts a deposit payment for a created itinerary.
type StartPayRequest struct {
    TransactionID int64
    NetAmount     float64
    TUI           string
    BrowserKey    string
}

// StartPayReply carries the gateway hand-off details the caller needs to
// complete the payment (redirect URL and mode) plus whatever booking state
// the supplier reported alongside.
type StartPayReply struct {
    Code         string
    Message      string
    PaymentID    string
    GatewayCode  string
    RedirectURL  string
    RedirectMode string
    BookStatus   string
    CRSPNR       string
    PostData     string
}

// wireCard is always sent zeroed: this integration uses deposit payments,
// never direct card capture.
type wireCard struct {
    Number        string `json:"Number"`
    Expiry        string `json:"Expiry"`
    CVV           string `json:"CVV"`
    CHName        string `json:"CHName"`
    Address       string `json:"Address"`
    City          string `json:"City"`
    State         string `json:"State"`
    Country       string `json:"Country"`
    PIN           string `json:"PIN"`
    International bool   `json:"International"`
    SaveCard      bool   `json:"SaveCard"`
    FName         string `json:"FName"`
    LName         string `json:"LName"`
    EMIMonths     string `json:"EMIMonths"`
}

type startPayRequestWire struct {
    TransactionID  int64    `json:"TransactionID"`
    PaymentAmount  float64  `json:"PaymentAmount"`
    NetAmount      float64  `json:"NetAmount"`
    BrowserKey     string   `json:"BrowserKey"`
    ClientID       string   `json:"ClientID"`
    TUI            string   `json:"TUI"`
    Hold           bool     `json:"Hold"`
    Promo          *string  `json:"Promo"`
    PaymentType    string   `json:"PaymentType"`
    BankCode       string   `json:"BankCode"`
    GateWayCode    string   `json:"GateWayCode"`
    MerchantID     string   `json:"MerchantID"`
    PaymentCharge  float64  `json:"PaymentCharge"`
    ReleaseDate    string   `json:"ReleaseDate"`
    OnlinePayment  bool     `json:"OnlinePayment"`
    DepositPayment bool     `json:"DepositPayment"`
    Card           wireCard `json:"Card"`
    VPA            string   `json:"VPA"`
    CardAlias      string   `json:"CardAlias"`
    QuickPay       *string  `json:"QuickPay"`
    RMSSignature   string   `json:"RMSSignature"`
    TargetCurrency string   `json:"TargetCurrency"`
    TargetAmount   float64  `json:"TargetAmount"`
    ServiceType    string   `json:"ServiceType"`
}

type startPayResponse struct {
    respEnvelope
    PaymentID    string `json:"PaymentID"`
    GatewayCode  string `json:"GatewayCode"`
    RedirectURL  string `json:"RedirectUrl"`
    RedirectMode string `json:"RedirectMode"`
    BookStatus   string `json:"BookStatus"`
    CRSPNR       string `json:"CRSPNR"`
    PostData     string `json:"PostData"`
}

// StartPay initiates payment with the supplier's gateway.  Settlement is
// reported asynchronously through the payment callback, so a non-success
// code here is surfaced to the caller but the response body is still
// returned for the payment record's gateway metadata.
func (c *Client) StartPay(ctx context.Context, req StartPayRequest) (*StartPayReply, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return nil, err
    }

    browserKey := req.BrowserKey
    if browserKey == "" {
        browserKey = c.cfg.BrowserKey
    }
    payload := startPayRequestWire{
        TransactionID:  req.TransactionID,
        NetAmount:      req.NetAmount,
        BrowserKey:     browserKey,
        ClientID:       creds.ClientID,
        TUI:            cleanString(req.TUI),
        DepositPayment: true,
        Card:           wireCard{EMIMonths: "0"},
        ServiceType:    "ITI",
    }

    var resp startPayResponse
    if err := c.postJSON(ctx, "start pay", c.flightsURL("/Payment/StartPay"), creds.Token, payload, &resp, c.cfg.RequestTimeout); err != nil {
        return nil, err
    }

    return &StartPayReply{
        Code:         resp.Code,
        Message:      resp.firstMsg(),
        PaymentID:    resp.PaymentID,
        GatewayCode:  resp.GatewayCode,
        RedirectURL:  resp.RedirectURL,
        RedirectMode: resp.RedirectMode,
        BookStatus:   resp.BookStatus,
        CRSPNR:       resp.CRSPNR,
        PostData:     resp.PostData,
    }, nil
}
