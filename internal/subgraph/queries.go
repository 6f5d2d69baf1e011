package subgraph

const saleStrategyFragment = `
fragment SaleStrategy on SalesStrategyConfig {
  type
  fixedPrice {
    address
    pricePerToken
    saleEnd
    saleStart
    maxTokensPerAddress
  }
  erc20Minter {
    address
    pricePerToken
    currency
    saleEnd
    saleStart
    maxTokensPerAddress
  }
  presale {
    address
    presaleStart
    presaleEnd
    merkleRoot
  }
  zoraTimedMinter {
    address
    mintFee
    saleStart
    saleEnd
    erc20Z {
      id
      pool
    }
    secondaryActivated
    marketCountdown
    minimumMarketEth
  }
}`

const tokenFragment = `
fragment Token on ZoraCreateToken {
  creator
  tokenId
  uri
  totalMinted
  maxSupply
  tokenStandard
  salesStrategies(where: {type_in: ["FIXED_PRICE", "ERC_20_MINTER", "PRESALE", "ZORA_TIMED"]}) {
    ...SaleStrategy
  }
  contract {
    address
    mintFeePerQuantity
    contractVersion
    contractURI
    name
    salesStrategies(where: {type_in: ["FIXED_PRICE", "ERC_20_MINTER", "PRESALE", "ZORA_TIMED"]}) {
      ...SaleStrategy
    }
  }
}`

const tokenQuery = saleStrategyFragment + tokenFragment + `
query ($id: ID!) {
  zoraCreateToken(id: $id) {
    ...Token
  }
}`

const contractTokensQuery = saleStrategyFragment + tokenFragment + `
query ($contract: Bytes!) {
  zoraCreateTokens(where: {address: $contract}) {
    ...Token
  }
}`

const premintsOfContractQuery = `
query ($contractAddress: Bytes!) {
  premints(where: {contractAddress: $contractAddress}) {
    uid
    tokenId
  }
}`

const defaultMintPriceQuery = `
{
  defaultMintPrice(id: "0x0000000000000000000000000000000000000000") {
    pricePerToken
  }
}`
